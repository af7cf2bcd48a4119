package form

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с формами записи на прием
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория форм
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindByID получает форму по идентификатору
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Form, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"title",
		"id_workflow",
		"is_overbooking_allowed",
		"nb_max_appointments_per_user",
		"nb_days_for_max_appointments_per_user",
		"ending_validity_date",
		"created_at",
		"updated_at",
	).
		From("forms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - build select query: %v", ErrBuildQuery, err)
	}

	var f domain.Form
	var endingValidityDate sql.NullTime
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&f.ID,
		&f.Title,
		&f.IDWorkflow,
		&f.IsOverbookingAllowed,
		&f.NbMaxAppointmentsPerUser,
		&f.NbDaysForMaxAppointmentsPerUser,
		&endingValidityDate,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - scan row: %v", ErrScanRow, err)
	}
	if endingValidityDate.Valid {
		f.EndingValidityDate = &endingValidityDate.Time
	}
	f.CreatedAt = createdAt.Time
	f.UpdatedAt = updatedAt.Time
	return &f, nil
}
