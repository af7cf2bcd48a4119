package update_schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	planningRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/planning"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type stubFormRepo struct {
	form *domain.Form
}

func (s *stubFormRepo) FindByID(_ context.Context, id int64) (*domain.Form, error) {
	if s.form == nil || s.form.ID != id {
		return nil, formRepo.ErrFormNotFound
	}
	return s.form, nil
}

type fakePlanningRepo struct {
	timeSlot       *domain.TimeSlot
	weekDefinition *domain.WeekDefinition
	updatedSlots   []*domain.TimeSlot
}

func (f *fakePlanningRepo) FindTimeSlotByID(_ context.Context, id int64) (*domain.TimeSlot, error) {
	if f.timeSlot == nil || f.timeSlot.ID != id {
		return nil, planningRepo.ErrTimeSlotNotFound
	}
	copied := *f.timeSlot
	return &copied, nil
}

func (f *fakePlanningRepo) FindWeekDefinitionByWorkingDay(_ context.Context, _ int64) (*domain.WeekDefinition, error) {
	return f.weekDefinition, nil
}

func (f *fakePlanningRepo) UpdateTimeSlot(_ context.Context, ts *domain.TimeSlot) error {
	f.updatedSlots = append(f.updatedSlots, ts)
	return nil
}

type stubAppointmentRepo struct {
	active []*domain.Appointment
}

func (s *stubAppointmentRepo) FindActiveBySlotIDs(_ context.Context, _ []int64) ([]*domain.Appointment, error) {
	return s.active, nil
}

type fakeSlotService struct {
	impacted []*domain.Slot
	updated  []*domain.Slot
}

func (f *fakeSlotService) FindSlotsImpactedByTimeSlot(_ context.Context, _ *domain.Form, _ *domain.TimeSlot, _ *domain.WorkingDay, _ *domain.WeekDefinition, _ bool) ([]*domain.Slot, error) {
	return f.impacted, nil
}

func (f *fakeSlotService) UpdateSlot(_ context.Context, slot *domain.Slot, _ time.Time, _ bool) error {
	f.updated = append(f.updated, slot)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func mustTime(s string) types.TimeString {
	t, err := types.NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return t
}

func testFixtures() (*stubFormRepo, *fakePlanningRepo) {
	forms := &stubFormRepo{form: &domain.Form{ID: 1, Title: "Vaccination"}}
	planning := &fakePlanningRepo{
		timeSlot: &domain.TimeSlot{
			ID:           3,
			WorkingDayID: 2,
			StartingTime: mustTime("09:00"),
			EndingTime:   mustTime("09:30"),
			MaxCapacity:  2,
			IsOpen:       true,
		},
		weekDefinition: &domain.WeekDefinition{
			ID:          1,
			FormID:      1,
			DateOfApply: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
			WorkingDays: []domain.WorkingDay{
				{
					ID:               2,
					WeekDefinitionID: 1,
					DayOfWeek:        1,
					TimeSlots: []domain.TimeSlot{
						{ID: 3, WorkingDayID: 2, StartingTime: mustTime("09:00"), EndingTime: mustTime("09:30"), MaxCapacity: 2, IsOpen: true},
					},
				},
			},
		},
	}
	return forms, planning
}

func persistedSlot(id int64) *domain.Slot {
	return &domain.Slot{
		ID:                         id,
		FormID:                     1,
		StartingDateTime:           time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC),
		EndingDateTime:             time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC),
		MaxCapacity:                2,
		NbRemainingPlaces:          2,
		NbPotentialRemainingPlaces: 2,
		IsOpen:                     true,
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	newUC := func(forms *stubFormRepo, planning *fakePlanningRepo, appointments *stubAppointmentRepo, slotSvc *fakeSlotService) *UseCase {
		return NewUseCase(forms, planning, appointments, slotSvc, locks.NewManager(), passthroughTxManager{}, nopLogger{})
	}

	t.Run("правка применяется к шаблону и сохраненным слотам", func(t *testing.T) {
		forms, planning := testFixtures()
		slotSvc := &fakeSlotService{impacted: []*domain.Slot{persistedSlot(7)}}
		uc := newUC(forms, planning, &stubAppointmentRepo{}, slotSvc)

		resp, err := uc.Execute(ctx, &Request{
			FormID:     1,
			TimeSlotID: 3,
			EndingTime: "09:45",
			IsOpen:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.ImpactedSlots)

		require.Len(t, planning.updatedSlots, 1)
		assert.Equal(t, mustTime("09:45"), planning.updatedSlots[0].EndingTime)

		require.Len(t, slotSvc.updated, 1)
		propagated := slotSvc.updated[0]
		assert.Equal(t, time.Date(2025, time.October, 13, 9, 45, 0, 0, time.UTC), propagated.EndingDateTime)
	})

	t.Run("разрушающая правка при активных записях отклоняется до изменений", func(t *testing.T) {
		forms, planning := testFixtures()
		slotSvc := &fakeSlotService{impacted: []*domain.Slot{persistedSlot(7)}}
		appointments := &stubAppointmentRepo{active: []*domain.Appointment{{ID: 1}}}
		uc := newUC(forms, planning, appointments, slotSvc)

		_, err := uc.Execute(ctx, &Request{
			FormID:     1,
			TimeSlotID: 3,
			EndingTime: "09:45",
			IsOpen:     true,
		})

		require.ErrorIs(t, err, ErrScheduleConflict)
		// сетка осталась нетронутой
		assert.Empty(t, planning.updatedSlots)
		assert.Empty(t, slotSvc.updated)
	})

	t.Run("неразрушающая правка не проверяет записи", func(t *testing.T) {
		forms, planning := testFixtures()
		slotSvc := &fakeSlotService{impacted: []*domain.Slot{persistedSlot(7)}}
		// активные записи есть, но правка только открывает слот шире
		appointments := &stubAppointmentRepo{active: []*domain.Appointment{{ID: 1}}}
		uc := newUC(forms, planning, appointments, slotSvc)

		resp, err := uc.Execute(ctx, &Request{
			FormID:      1,
			TimeSlotID:  3,
			EndingTime:  "09:30", // без изменения границы
			MaxCapacity: 5,       // вместимость растет
			IsOpen:      true,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.ImpactedSlots)
		assert.Equal(t, 5, slotSvc.updated[0].MaxCapacity)
		assert.Equal(t, 5, slotSvc.updated[0].NbRemainingPlaces)
	})

	t.Run("закрытие шаблона с записями отклоняется", func(t *testing.T) {
		forms, planning := testFixtures()
		slotSvc := &fakeSlotService{impacted: []*domain.Slot{persistedSlot(7)}}
		appointments := &stubAppointmentRepo{active: []*domain.Appointment{{ID: 1}}}
		uc := newUC(forms, planning, appointments, slotSvc)

		_, err := uc.Execute(ctx, &Request{
			FormID:     1,
			TimeSlotID: 3,
			EndingTime: "09:30",
			IsOpen:     false,
		})

		require.ErrorIs(t, err, ErrScheduleConflict)
	})

	t.Run("несуществующий шаблон", func(t *testing.T) {
		forms, planning := testFixtures()
		uc := newUC(forms, planning, &stubAppointmentRepo{}, &fakeSlotService{})

		_, err := uc.Execute(ctx, &Request{FormID: 1, TimeSlotID: 404, IsOpen: true})

		require.ErrorIs(t, err, ErrTimeSlotNotFound)
	})

	t.Run("валидация времени окончания", func(t *testing.T) {
		forms, planning := testFixtures()
		uc := newUC(forms, planning, &stubAppointmentRepo{}, &fakeSlotService{})

		_, err := uc.Execute(ctx, &Request{FormID: 1, TimeSlotID: 3, EndingTime: "25:99", IsOpen: true})

		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
