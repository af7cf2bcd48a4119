package planning

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Repository репозиторий для работы с расписанием форм: определения недель,
// рабочие дни, шаблоны интервалов и дни закрытия
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// FindWeekDefinitionsByForm получает все определения недель формы вместе с
// рабочими днями и шаблонами интервалов, отсортированные по дате применения
func (r *Repository) FindWeekDefinitionsByForm(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "form_id", "date_of_apply").
		From("week_definitions").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("date_of_apply ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindWeekDefinitionsByForm - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindWeekDefinitionsByForm - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	weekDefinitions := make([]*domain.WeekDefinition, 0)
	for rows.Next() {
		var wd domain.WeekDefinition
		if err := rows.Scan(&wd.ID, &wd.FormID, &wd.DateOfApply); err != nil {
			return nil, fmt.Errorf("%w: FindWeekDefinitionsByForm - scan row: %v", ErrScanRow, err)
		}
		weekDefinitions = append(weekDefinitions, &wd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindWeekDefinitionsByForm - rows error: %v", ErrScanRow, err)
	}

	for _, wd := range weekDefinitions {
		workingDays, err := r.findWorkingDays(ctx, executor, wd.ID)
		if err != nil {
			return nil, err
		}
		wd.WorkingDays = workingDays
	}
	return weekDefinitions, nil
}

func (r *Repository) findWorkingDays(ctx context.Context, executor dbmetrics.DBExecutor, weekDefinitionID int64) ([]domain.WorkingDay, error) {
	query, args, err := psqlbuilder.Select("id", "week_definition_id", "day_of_week").
		From("working_days").
		Where(squirrel.Eq{"week_definition_id": weekDefinitionID}).
		OrderBy("day_of_week ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: findWorkingDays - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: findWorkingDays - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]domain.WorkingDay, 0)
	for rows.Next() {
		var d domain.WorkingDay
		if err := rows.Scan(&d.ID, &d.WeekDefinitionID, &d.DayOfWeek); err != nil {
			return nil, fmt.Errorf("%w: findWorkingDays - scan row: %v", ErrScanRow, err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: findWorkingDays - rows error: %v", ErrScanRow, err)
	}

	for i := range days {
		timeSlots, err := r.findTimeSlots(ctx, executor, days[i].ID)
		if err != nil {
			return nil, err
		}
		days[i].TimeSlots = timeSlots
	}
	return days, nil
}

func (r *Repository) findTimeSlots(ctx context.Context, executor dbmetrics.DBExecutor, workingDayID int64) ([]domain.TimeSlot, error) {
	query, args, err := psqlbuilder.Select("id", "working_day_id", "starting_time", "ending_time", "max_capacity", "is_open").
		From("time_slots").
		Where(squirrel.Eq{"working_day_id": workingDayID}).
		OrderBy("starting_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: findTimeSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: findTimeSlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	timeSlots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		ts, err := scanTimeSlot(rows)
		if err != nil {
			return nil, err
		}
		timeSlots = append(timeSlots, *ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: findTimeSlots - rows error: %v", ErrScanRow, err)
	}
	return timeSlots, nil
}

func scanTimeSlot(rows *sql.Rows) (*domain.TimeSlot, error) {
	var ts domain.TimeSlot
	var startingTime, endingTime string
	err := rows.Scan(&ts.ID, &ts.WorkingDayID, &startingTime, &endingTime, &ts.MaxCapacity, &ts.IsOpen)
	if err != nil {
		return nil, fmt.Errorf("%w: scanTimeSlot - scan row: %v", ErrScanRow, err)
	}
	ts.StartingTime, err = types.NewTimeStringFromString(startingTime)
	if err != nil {
		return nil, fmt.Errorf("%w: scanTimeSlot - parse starting time: %v", ErrScanRow, err)
	}
	ts.EndingTime, err = types.NewTimeStringFromString(endingTime)
	if err != nil {
		return nil, fmt.Errorf("%w: scanTimeSlot - parse ending time: %v", ErrScanRow, err)
	}
	return &ts, nil
}

// FindTimeSlotByID получает шаблон временного интервала по идентификатору
func (r *Repository) FindTimeSlotByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "working_day_id", "starting_time", "ending_time", "max_capacity", "is_open").
		From("time_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindTimeSlotByID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindTimeSlotByID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: FindTimeSlotByID - rows error: %v", ErrScanRow, err)
		}
		return nil, ErrTimeSlotNotFound
	}
	return scanTimeSlot(rows)
}

// FindWeekDefinitionByWorkingDay получает определение недели, которому
// принадлежит рабочий день
func (r *Repository) FindWeekDefinitionByWorkingDay(ctx context.Context, workingDayID int64) (*domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("wd.id", "wd.form_id", "wd.date_of_apply").
		From("week_definitions wd").
		Join("working_days d ON d.week_definition_id = wd.id").
		Where(squirrel.Eq{"d.id": workingDayID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindWeekDefinitionByWorkingDay - build select query: %v", ErrBuildQuery, err)
	}

	var wd domain.WeekDefinition
	err = executor.QueryRowContext(ctx, query, args...).Scan(&wd.ID, &wd.FormID, &wd.DateOfApply)
	if err == sql.ErrNoRows {
		return nil, ErrWeekDefinitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindWeekDefinitionByWorkingDay - scan row: %v", ErrScanRow, err)
	}

	workingDays, err := r.findWorkingDays(ctx, executor, wd.ID)
	if err != nil {
		return nil, err
	}
	wd.WorkingDays = workingDays
	return &wd, nil
}

// UpdateTimeSlot обновляет шаблон временного интервала
func (r *Repository) UpdateTimeSlot(ctx context.Context, ts *domain.TimeSlot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("time_slots").
		Set("starting_time", ts.StartingTime.String()).
		Set("ending_time", ts.EndingTime.String()).
		Set("max_capacity", ts.MaxCapacity).
		Set("is_open", ts.IsOpen).
		Where(squirrel.Eq{"id": ts.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateTimeSlot - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateTimeSlot - execute update: %v", ErrExecQuery, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateTimeSlot - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrTimeSlotNotFound
	}
	return nil
}

// FindClosingDates получает даты закрытия формы в указанном диапазоне
func (r *Repository) FindClosingDates(ctx context.Context, formID int64, startDate, endDate time.Time) ([]time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("date").
		From("closing_days").
		Where(squirrel.Eq{"form_id": formID}).
		Where(squirrel.GtOrEq{"date": startDate}).
		Where(squirrel.LtOrEq{"date": endDate}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindClosingDates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindClosingDates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%w: FindClosingDates - scan row: %v", ErrScanRow, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindClosingDates - rows error: %v", ErrScanRow, err)
	}
	return dates, nil
}
