package appointment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с записями на прием
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись на прием вместе со строками appointment_slots
// Вызывается только внутри транзакции координатора бронирования
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"form_id",
			"reference",
			"user_id",
			"user_email",
			"nb_booked_seats",
			"is_cancelled",
			"is_surbooked",
			"date_taken",
			"id_action_reported",
		).
		Values(
			a.FormID,
			a.Reference,
			a.UserID,
			a.UserEmail,
			a.NbBookedSeats,
			a.IsCancelled,
			a.IsSurbooked,
			a.DateTaken,
			a.IDActionReported,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	for i := range a.Slots {
		a.Slots[i].AppointmentID = a.ID
		if err := r.createAppointmentSlot(ctx, executor, &a.Slots[i]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (r *Repository) createAppointmentSlot(ctx context.Context, executor dbmetrics.DBExecutor, as *domain.AppointmentSlot) error {
	query, args, err := psqlbuilder.Insert("appointment_slots").
		Columns("appointment_id", "slot_id", "nb_places").
		Values(as.AppointmentID, as.SlotID, as.NbPlaces).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: createAppointmentSlot - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: createAppointmentSlot - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

// UpdateSlots заменяет строки appointment_slots записи (перенос на другие слоты)
func (r *Repository) UpdateSlots(ctx context.Context, a *domain.Appointment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("appointment_slots").
		Where(squirrel.Eq{"appointment_id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSlots - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: UpdateSlots - execute delete: %v", ErrExecQuery, err)
	}

	for i := range a.Slots {
		a.Slots[i].AppointmentID = a.ID
		if err := r.createAppointmentSlot(ctx, executor, &a.Slots[i]); err != nil {
			return err
		}
	}
	return nil
}

// Update обновляет поля записи на прием
func (r *Repository) Update(ctx context.Context, a *domain.Appointment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("nb_booked_seats", a.NbBookedSeats).
		Set("is_cancelled", a.IsCancelled).
		Set("is_surbooked", a.IsSurbooked).
		Set("date_taken", a.DateTaken).
		Set("id_action_reported", a.IDActionReported).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.ID}).
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
		return ErrAppointmentNotFound
	}
	return nil
}

// FindByID получает запись на прием вместе с её слотами
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"form_id",
		"reference",
		"user_id",
		"user_email",
		"nb_booked_seats",
		"is_cancelled",
		"is_surbooked",
		"date_taken",
		"id_action_reported",
		"created_at",
		"updated_at",
	).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Appointment
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&a.FormID,
		&a.Reference,
		&a.UserID,
		&a.UserEmail,
		&a.NbBookedSeats,
		&a.IsCancelled,
		&a.IsSurbooked,
		&a.DateTaken,
		&a.IDActionReported,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindByID - scan appointment: %v", ErrScanRow, err)
	}
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	slots, err := r.findAppointmentSlots(ctx, executor, a.ID)
	if err != nil {
		return nil, err
	}
	a.Slots = slots
	return &a, nil
}

func (r *Repository) findAppointmentSlots(ctx context.Context, executor dbmetrics.DBExecutor, appointmentID int64) ([]domain.AppointmentSlot, error) {
	query, args, err := psqlbuilder.Select("appointment_id", "slot_id", "nb_places").
		From("appointment_slots").
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		OrderBy("slot_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: findAppointmentSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: findAppointmentSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]domain.AppointmentSlot, 0)
	for rows.Next() {
		var as domain.AppointmentSlot
		if err := rows.Scan(&as.AppointmentID, &as.SlotID, &as.NbPlaces); err != nil {
			return nil, fmt.Errorf("%w: findAppointmentSlots - scan row: %v", ErrScanRow, err)
		}
		result = append(result, as)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: findAppointmentSlots - rows error: %v", ErrScanRow, err)
	}
	return result, nil
}

// FindActiveBySlotIDs получает активные (не отмененные) записи, занимающие
// хотя бы один из указанных слотов
func (r *Repository) FindActiveBySlotIDs(ctx context.Context, slotIDs []int64) ([]*domain.Appointment, error) {
	if len(slotIDs) == 0 {
		return []*domain.Appointment{}, nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT a.id").
		From("appointments a").
		Join("appointment_slots s ON s.appointment_id = a.id").
		Where(squirrel.Eq{"s.slot_id": slotIDs}).
		Where(squirrel.Eq{"a.is_cancelled": false}).
		OrderBy("a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveBySlotIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveBySlotIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: FindActiveBySlotIDs - scan row: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindActiveBySlotIDs - rows error: %v", ErrScanRow, err)
	}

	appointments := make([]*domain.Appointment, 0, len(ids))
	for _, id := range ids {
		a, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, nil
}

// FindSlotsByUserEmail получает слоты всех активных записей пользователя на
// форме, исключая указанную запись (проверка лимита записей на период)
func (r *Repository) FindSlotsByUserEmail(ctx context.Context, email string, formID, excludeAppointmentID int64) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(
		"sl.id",
		"sl.form_id",
		"sl.starting_date_time",
		"sl.ending_date_time",
		"sl.max_capacity",
		"sl.nb_remaining_places",
		"sl.nb_potential_remaining_places",
		"sl.nb_places_taken",
		"sl.is_open",
		"sl.is_specific",
	).
		From("slots sl").
		Join("appointment_slots aps ON aps.slot_id = sl.id").
		Join("appointments a ON a.id = aps.appointment_id").
		Where(squirrel.Eq{"a.user_email": email}).
		Where(squirrel.Eq{"a.form_id": formID}).
		Where(squirrel.Eq{"a.is_cancelled": false}).
		OrderBy("sl.starting_date_time ASC")

	if excludeAppointmentID != 0 {
		builder = builder.Where(squirrel.NotEq{"a.id": excludeAppointmentID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotsByUserEmail - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotsByUserEmail - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		err := rows.Scan(
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
		)
		if err != nil {
			return nil, fmt.Errorf("%w: FindSlotsByUserEmail - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindSlotsByUserEmail - rows error: %v", ErrScanRow, err)
	}
	return slots, nil
}

// CreateResponse сохраняет ответ формы, привязанный к записи
// Вызывается внутри транзакции координатора вместе с созданием записи
func (r *Repository) CreateResponse(ctx context.Context, resp *domain.AppointmentResponse) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointment_responses").
		Columns("appointment_id", "field_code", "value").
		Values(resp.AppointmentID, resp.FieldCode, resp.Value).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateResponse - build insert query: %v", ErrBuildQuery, err)
	}
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&resp.ID); err != nil {
		return fmt.Errorf("%w: CreateResponse - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}
