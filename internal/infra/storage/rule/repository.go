package rule

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var ruleColumns = []string{
	"id",
	"form_id",
	"date_of_apply",
	"max_capacity_per_slot",
	"max_people_per_appointment",
	"duration_minutes",
}

// Repository репозиторий для работы с правилами бронирования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория правил
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindByForm получает все правила бронирования формы, отсортированные по дате
// применения
func (r *Repository) FindByForm(ctx context.Context, formID int64) ([]domain.ReservationRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(ruleColumns...).
		From("reservation_rules").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("date_of_apply ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]domain.ReservationRule, 0)
	for rows.Next() {
		var rr domain.ReservationRule
		err := rows.Scan(
			&rr.ID,
			&rr.FormID,
			&rr.DateOfApply,
			&rr.MaxCapacityPerSlot,
			&rr.MaxPeoplePerAppointment,
			&rr.DurationMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: FindByForm - scan row: %v", ErrScanRow, err)
		}
		rules = append(rules, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindByForm - rows error: %v", ErrScanRow, err)
	}
	return rules, nil
}

// FindByID получает правило бронирования по идентификатору
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.ReservationRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(ruleColumns...).
		From("reservation_rules").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - build select query: %v", ErrBuildQuery, err)
	}

	var rr domain.ReservationRule
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&rr.ID,
		&rr.FormID,
		&rr.DateOfApply,
		&rr.MaxCapacityPerSlot,
		&rr.MaxPeoplePerAppointment,
		&rr.DurationMinutes,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - scan row: %v", ErrScanRow, err)
	}
	return &rr, nil
}
