package reactivate_appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

var testNow = time.Date(2025, time.October, 13, 8, 0, 0, 0, time.UTC)

type memSlotRepo struct {
	mu    sync.Mutex
	slots map[int64]*domain.Slot
}

func newMemSlotRepo(slots ...*domain.Slot) *memSlotRepo {
	m := &memSlotRepo{slots: make(map[int64]*domain.Slot)}
	for _, s := range slots {
		copied := *s
		m.slots[s.ID] = &copied
	}
	return m
}

func (m *memSlotRepo) FindByID(_ context.Context, slotID int64) (*domain.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memSlotRepo) Update(_ context.Context, s *domain.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.slots[s.ID] = &copied
	return nil
}

func (m *memSlotRepo) get(slotID int64) domain.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.slots[slotID]
}

type memAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[int64]*domain.Appointment
}

func newMemAppointmentRepo(appointments ...*domain.Appointment) *memAppointmentRepo {
	m := &memAppointmentRepo{appointments: make(map[int64]*domain.Appointment)}
	for _, a := range appointments {
		copied := *a
		m.appointments[a.ID] = &copied
	}
	return m
}

func (m *memAppointmentRepo) FindByID(_ context.Context, id int64) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAppointmentRepo) Update(_ context.Context, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

func (m *memAppointmentRepo) get(id int64) domain.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.appointments[id]
}

type eventRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (e *eventRecorder) Publish(event notify.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTimeProvider struct{}

func (fixedTimeProvider) Now() time.Time { return testNow }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// cancelledSlot слот, которому уже вернули n мест после отмены записи
func cancelledSlot(id int64, capacity int) *domain.Slot {
	return &domain.Slot{
		ID:                         id,
		FormID:                     1,
		StartingDateTime:           testNow.Add(time.Hour),
		EndingDateTime:             testNow.Add(90 * time.Minute),
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		IsOpen:                     true,
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	cancelled := &domain.Appointment{
		ID:            1,
		FormID:        1,
		Reference:     "APT-REACT01",
		UserID:        10,
		NbBookedSeats: 2,
		IsCancelled:   true,
		Slots:         []domain.AppointmentSlot{{AppointmentID: 1, SlotID: 5, NbPlaces: 2}},
	}

	newUC := func(slots *memSlotRepo, appointments *memAppointmentRepo, events *eventRecorder) *UseCase {
		uc := NewUseCase(appointments, slots, locks.NewManager(), events, passthroughTxManager{}, nopLogger{})
		uc.timeProvider = fixedTimeProvider{}
		return uc
	}

	t.Run("возврат занимает места заново и снимает отмену", func(t *testing.T) {
		slots := newMemSlotRepo(cancelledSlot(5, 4))
		appointments := newMemAppointmentRepo(cancelled)
		events := &eventRecorder{}
		uc := newUC(slots, appointments, events)

		resp, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 10})

		require.NoError(t, err)
		assert.False(t, resp.IsCancelled)
		assert.Equal(t, "APT-REACT01", resp.Reference)

		stored := slots.get(5)
		assert.Equal(t, 2, stored.NbRemainingPlaces)
		assert.Equal(t, 2, stored.NbPotentialRemainingPlaces)
		assert.Equal(t, 2, stored.NbPlacesTaken)

		assert.False(t, appointments.get(1).IsCancelled)
		require.Len(t, events.events, 2)
		assert.Equal(t, notify.EventSlotChanged, events.events[0].Type)
		assert.Equal(t, notify.EventAppointmentReactivated, events.events[1].Type)
	})

	t.Run("возврат на заполненный слот не ограничивается", func(t *testing.T) {
		full := cancelledSlot(5, 4)
		full.NbRemainingPlaces = 0
		full.NbPotentialRemainingPlaces = 0
		full.NbPlacesTaken = 4
		slots := newMemSlotRepo(full)
		appointments := newMemAppointmentRepo(cancelled)
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 10})

		require.NoError(t, err)
		stored := slots.get(5)
		assert.Equal(t, -2, stored.NbRemainingPlaces)
		assert.Equal(t, -2, stored.NbPotentialRemainingPlaces)
		assert.Equal(t, 6, stored.NbPlacesTaken)
	})

	t.Run("оператор возвращает чужую запись", func(t *testing.T) {
		slots := newMemSlotRepo(cancelledSlot(5, 4))
		appointments := newMemAppointmentRepo(cancelled)
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 0})

		require.NoError(t, err)
		assert.False(t, appointments.get(1).IsCancelled)
	})

	t.Run("чужой пользователь получает отказ", func(t *testing.T) {
		slots := newMemSlotRepo(cancelledSlot(5, 4))
		appointments := newMemAppointmentRepo(cancelled)
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 99})

		require.ErrorIs(t, err, ErrAccessDenied)
		assert.True(t, appointments.get(1).IsCancelled)
	})

	t.Run("действующая запись не возвращается повторно", func(t *testing.T) {
		active := *cancelled
		active.IsCancelled = false
		slots := newMemSlotRepo(cancelledSlot(5, 4))
		appointments := newMemAppointmentRepo(&active)
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 10})

		require.ErrorIs(t, err, ErrNotCancelled)
	})

	t.Run("прошедший слот не возвращается", func(t *testing.T) {
		past := cancelledSlot(5, 4)
		past.StartingDateTime = testNow.Add(-2 * time.Hour)
		past.EndingDateTime = testNow.Add(-time.Hour)
		slots := newMemSlotRepo(past)
		appointments := newMemAppointmentRepo(cancelled)
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 1, UserID: 10})

		require.ErrorIs(t, err, ErrSlotEnded)
		assert.True(t, appointments.get(1).IsCancelled)
	})

	t.Run("несуществующая запись дает ошибку", func(t *testing.T) {
		slots := newMemSlotRepo(cancelledSlot(5, 4))
		appointments := newMemAppointmentRepo()
		uc := newUC(slots, appointments, &eventRecorder{})

		_, err := uc.Execute(ctx, &Request{AppointmentID: 7, UserID: 10})

		require.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}
