package slot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"form_id",
	"starting_date_time",
	"ending_date_time",
	"max_capacity",
	"nb_remaining_places",
	"nb_potential_remaining_places",
	"nb_places_taken",
	"is_open",
	"is_specific",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы со слотами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает слот и возвращает его с заполненным id
// Если в контексте есть активная транзакция, запрос выполняется внутри неё
func (r *Repository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"form_id",
			"starting_date_time",
			"ending_date_time",
			"max_capacity",
			"nb_remaining_places",
			"nb_potential_remaining_places",
			"nb_places_taken",
			"is_open",
			"is_specific",
		).
		Values(
			s.FormID,
			s.StartingDateTime,
			s.EndingDateTime,
			s.MaxCapacity,
			s.NbRemainingPlaces,
			s.NbPotentialRemainingPlaces,
			s.NbPlacesTaken,
			s.IsOpen,
			s.IsSpecific,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return s, nil
}

// Update обновляет слот целиком (границы и счетчики мест)
func (r *Repository) Update(ctx context.Context, s *domain.Slot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("starting_date_time", s.StartingDateTime).
		Set("ending_date_time", s.EndingDateTime).
		Set("max_capacity", s.MaxCapacity).
		Set("nb_remaining_places", s.NbRemainingPlaces).
		Set("nb_potential_remaining_places", s.NbPotentialRemainingPlaces).
		Set("nb_places_taken", s.NbPlacesTaken).
		Set("is_open", s.IsOpen).
		Set("is_specific", s.IsSpecific).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// UpdatePotentialRemainingPlaces обновляет только счетчик потенциально
// свободных мест (используется протоколом мягкой блокировки)
func (r *Repository) UpdatePotentialRemainingPlaces(ctx context.Context, slotID int64, nbPotentialRemainingPlaces int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("nb_potential_remaining_places", nbPotentialRemainingPlaces).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePotentialRemainingPlaces - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePotentialRemainingPlaces - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePotentialRemainingPlaces - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Delete удаляет слот
func (r *Repository) Delete(ctx context.Context, slotID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"id": slotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// FindByID получает слот по ID
func (r *Repository) FindByID(ctx context.Context, slotID int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": slotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	s, err := scanSlotRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - scan slot: %v", ErrScanRow, err)
	}
	return s, nil
}

// FindByFormAndDateRange получает все слоты формы, начинающиеся в заданном
// интервале, упорядоченные по времени начала
func (r *Repository) FindByFormAndDateRange(ctx context.Context, formID int64, start, end time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"form_id": formID}).
		Where(squirrel.GtOrEq{"starting_date_time": start}).
		Where(squirrel.LtOrEq{"starting_date_time": end}).
		OrderBy("starting_date_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByFormAndDateRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindByFormAndDateRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanSlots(rows)
}

// FindSlotWithMaxDate получает слот формы с самой поздней датой начала
func (r *Repository) FindSlotWithMaxDate(ctx context.Context, formID int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("starting_date_time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotWithMaxDate - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	s, err := scanSlotRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotWithMaxDate - scan slot: %v", ErrScanRow, err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.FormID,
		&s.StartingDateTime,
		&s.EndingDateTime,
		&s.MaxCapacity,
		&s.NbRemainingPlaces,
		&s.NbPotentialRemainingPlaces,
		&s.NbPlacesTaken,
		&s.IsOpen,
		&s.IsSpecific,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}

func scanSlotRow(row *sql.Row) (*domain.Slot, error) {
	return scanSlot(row)
}

func scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}
	return slots, nil
}
