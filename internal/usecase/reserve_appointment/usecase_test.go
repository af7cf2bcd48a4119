package reserve_appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	formRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/form"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/workflowservice"
	"github.com/m04kA/SMC-AppointmentService/internal/service/locks"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notify"
)

// --- фейки ---

type stubFormRepo struct {
	form *domain.Form
}

func (s *stubFormRepo) FindByID(_ context.Context, id int64) (*domain.Form, error) {
	if s.form == nil || s.form.ID != id {
		return nil, formRepo.ErrFormNotFound
	}
	return s.form, nil
}

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
	if _, ok := m.slots[s.ID]; !ok {
		return slotRepo.ErrSlotNotFound
	}
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
	responses    []*domain.AppointmentResponse
	userSlots    []*domain.Slot
	nextID       int64
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{appointments: make(map[int64]*domain.Appointment)}
}

func (m *memAppointmentRepo) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	copied := *a
	copied.ID = m.nextID
	copied.CreatedAt = time.Now()
	m.appointments[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (m *memAppointmentRepo) Update(_ context.Context, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	copied := *a
	m.appointments[a.ID] = &copied
	return nil
}

func (m *memAppointmentRepo) UpdateSlots(_ context.Context, a *domain.Appointment) error {
	return m.Update(context.Background(), a)
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

func (m *memAppointmentRepo) FindSlotsByUserEmail(_ context.Context, _ string, formID, _ int64) ([]*domain.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Slot, 0, len(m.userSlots))
	for _, s := range m.userSlots {
		if s.FormID == formID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *memAppointmentRepo) CreateResponse(_ context.Context, resp *domain.AppointmentResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return nil
}

func (m *memAppointmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appointments)
}

type stubSlotService struct{}

func (stubSlotService) BuildSlotList(_ context.Context, _ int64, _, _ time.Time) ([]*domain.Slot, error) {
	return nil, nil
}

func (stubSlotService) CreateSlotIfAbsent(_ context.Context, s *domain.Slot) (*domain.Slot, error) {
	return s, nil
}

type fakeHoldRegistry struct {
	mu        sync.Mutex
	holds     map[string]*locks.Hold
	cancelled []string
}

func newFakeHoldRegistry() *fakeHoldRegistry {
	return &fakeHoldRegistry{holds: make(map[string]*locks.Hold)}
}

func (f *fakeHoldRegistry) key(sessionID string, slotID int64) string {
	return fmt.Sprintf("%s:%d", sessionID, slotID)
}

func (f *fakeHoldRegistry) ActiveHold(sessionID string, slotID int64) *locks.Hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holds[f.key(sessionID, slotID)]
}

func (f *fakeHoldRegistry) CancelHold(sessionID string, slotID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holds, f.key(sessionID, slotID))
	f.cancelled = append(f.cancelled, f.key(sessionID, slotID))
}

func (f *fakeHoldRegistry) set(sessionID string, slotID int64, nbPlaces int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holds[f.key(sessionID, slotID)] = &locks.Hold{SessionID: sessionID, SlotID: slotID, NbPlaces: nbPlaces}
}

type fakeWorkflowClient struct {
	mu      sync.Mutex
	actions []workflowservice.ProcessActionRequest
}

func (f *fakeWorkflowClient) GetState(_ context.Context, _ int64, _ string, _ int64) (*workflowservice.State, error) {
	return &workflowservice.State{}, nil
}

func (f *fakeWorkflowClient) ProcessActionWithGracefulDegradation(_ context.Context, req workflowservice.ProcessActionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, req)
	return nil
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

func (e *eventRecorder) ofType(t notify.EventType) []notify.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]notify.Event, 0)
	for _, ev := range e.events {
		if ev.Type == t {
			result = append(result, ev)
		}
	}
	return result
}

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTimeProvider struct {
	t time.Time
}

func (p *fixedTimeProvider) Now() time.Time { return p.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- сборка ---

type testEnv struct {
	useCase      *UseCase
	forms        *stubFormRepo
	appointments *memAppointmentRepo
	slots        *memSlotRepo
	holds        *fakeHoldRegistry
	workflow     *fakeWorkflowClient
	events       *eventRecorder
}

var testNow = time.Date(2025, time.October, 13, 8, 0, 0, 0, time.UTC)

func newTestEnv(form *domain.Form, slots ...*domain.Slot) *testEnv {
	env := &testEnv{
		forms:        &stubFormRepo{form: form},
		appointments: newMemAppointmentRepo(),
		slots:        newMemSlotRepo(slots...),
		holds:        newFakeHoldRegistry(),
		workflow:     &fakeWorkflowClient{},
		events:       &eventRecorder{},
	}
	env.useCase = NewUseCase(
		env.forms,
		env.appointments,
		env.slots,
		stubSlotService{},
		locks.NewManager(),
		env.holds,
		env.workflow,
		env.events,
		passthroughTxManager{},
		nopLogger{},
	)
	env.useCase.timeProvider = &fixedTimeProvider{t: testNow}
	return env
}

func testForm() *domain.Form {
	return &domain.Form{ID: 1, Title: "Vaccination"}
}

func openSlot(id int64, capacity int) *domain.Slot {
	return &domain.Slot{
		ID:                         id,
		FormID:                     1,
		StartingDateTime:           time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC),
		EndingDateTime:             time.Date(2025, time.October, 13, 9, 30, 0, 0, time.UTC),
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		IsOpen:                     true,
	}
}

func partiallyBookedSlot(id int64, capacity, taken int) *domain.Slot {
	s := openSlot(id, capacity)
	s.NbRemainingPlaces = capacity - taken
	s.NbPotentialRemainingPlaces = capacity - taken
	s.NbPlacesTaken = taken
	return s
}

func reserveRequest(sessionID string, slotIDs ...int64) *Request {
	slots := make([]SlotRequest, 0, len(slotIDs))
	for _, id := range slotIDs {
		slots = append(slots, SlotRequest{SlotID: id})
	}
	return &Request{
		FormID:        1,
		SessionID:     sessionID,
		UserID:        10,
		UserEmail:     "user@example.com",
		NbBookedSeats: 1,
		Slots:         slots,
	}
}

// --- тесты ---

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("успешное бронирование занимает места и публикует события", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		resp, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.NoError(t, err)
		assert.NotZero(t, resp.AppointmentID)
		assert.NotEmpty(t, resp.Reference)
		assert.False(t, resp.IsSurbooked)
		require.Len(t, resp.Slots, 1)
		assert.Equal(t, 2, resp.Slots[0].NbRemainingPlaces)

		stored := env.slots.get(1)
		assert.Equal(t, 2, stored.NbRemainingPlaces)
		assert.Equal(t, 2, stored.NbPotentialRemainingPlaces)
		assert.Equal(t, 1, stored.NbPlacesTaken)

		assert.Len(t, env.events.ofType(notify.EventAppointmentCreated), 1)
		assert.Len(t, env.events.ofType(notify.EventSlotChanged), 1)
	})

	t.Run("заполненный слот отклоняет бронирование", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 1))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))
		require.NoError(t, err)

		_, err = env.useCase.Execute(ctx, reserveRequest("session-b", 1))

		require.ErrorIs(t, err, ErrSlotFull)
		assert.Equal(t, 1, env.appointments.count())
	})

	t.Run("сверхбронирование разрешено формой", func(t *testing.T) {
		form := testForm()
		form.IsOverbookingAllowed = true
		env := newTestEnv(form, openSlot(1, 1))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))
		require.NoError(t, err)

		resp, err := env.useCase.Execute(ctx, reserveRequest("session-b", 1))

		require.NoError(t, err)
		assert.True(t, resp.IsSurbooked)

		stored := env.slots.get(1)
		assert.Equal(t, 2, stored.NbPlacesTaken)
		assert.Equal(t, -1, stored.NbRemainingPlaces)
	})

	t.Run("закрытый слот отклоняется", func(t *testing.T) {
		slot := openSlot(1, 3)
		slot.IsOpen = false
		env := newTestEnv(testForm(), slot)

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.ErrorIs(t, err, ErrSlotNotOpen)
	})

	t.Run("прошедший слот отклоняется", func(t *testing.T) {
		slot := openSlot(1, 3)
		slot.StartingDateTime = testNow.Add(-2 * time.Hour)
		slot.EndingDateTime = testNow.Add(-90 * time.Minute)
		env := newTestEnv(testForm(), slot)

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.ErrorIs(t, err, ErrSlotEnded)
	})

	t.Run("повторная отправка той же сессией отклоняется", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))
		require.NoError(t, err)

		_, err = env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.ErrorIs(t, err, ErrAlreadySaved)
		assert.Equal(t, 1, env.appointments.count())
	})

	t.Run("устаревшая отметка сессии не блокирует бронирование", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))
		require.NoError(t, err)

		env.useCase.timeProvider = &fixedTimeProvider{t: testNow.Add(61 * time.Minute)}

		_, err = env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.NoError(t, err)
		assert.Equal(t, 2, env.appointments.count())
	})

	t.Run("чистка убирает устаревшие отметки сессий", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))
		require.NoError(t, err)
		assert.Equal(t, 0, env.useCase.SweepSavedSessions())

		env.useCase.timeProvider = &fixedTimeProvider{t: testNow.Add(61 * time.Minute)}

		assert.Equal(t, 1, env.useCase.SweepSavedSessions())
		assert.Equal(t, 0, env.useCase.SweepSavedSessions())
	})

	t.Run("лимит записей пользователя на период", func(t *testing.T) {
		form := testForm()
		form.NbMaxAppointmentsPerUser = 1
		form.NbDaysForMaxAppointmentsPerUser = 7
		env := newTestEnv(form, openSlot(1, 3))

		// у пользователя уже есть запись двумя днями раньше
		existing := openSlot(99, 1)
		existing.StartingDateTime = time.Date(2025, time.October, 11, 9, 0, 0, 0, time.UTC)
		env.appointments.userSlots = []*domain.Slot{existing}

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.ErrorIs(t, err, ErrMaxAppointmentsReached)
	})

	t.Run("лимит не считает записи на других формах", func(t *testing.T) {
		form := testForm()
		form.NbMaxAppointmentsPerUser = 1
		form.NbDaysForMaxAppointmentsPerUser = 7
		env := newTestEnv(form, openSlot(1, 3))

		// запись двумя днями раньше, но на другой форме
		existing := openSlot(99, 1)
		existing.FormID = 2
		existing.StartingDateTime = time.Date(2025, time.October, 11, 9, 0, 0, 0, time.UTC)
		env.appointments.userSlots = []*domain.Slot{existing}

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 1))

		require.NoError(t, err)
	})

	t.Run("несуществующая форма", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))
		req := reserveRequest("session-a", 1)
		req.FormID = 77

		_, err := env.useCase.Execute(ctx, req)

		require.ErrorIs(t, err, ErrFormNotFound)
	})

	t.Run("несуществующий слот", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		_, err := env.useCase.Execute(ctx, reserveRequest("session-a", 55))

		require.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("удержанные места списываются при фиксации", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		// сессия удерживала 2 места: потенциальные уже уменьшены
		slot := env.slots.get(1)
		slot.NbPotentialRemainingPlaces = 1
		require.NoError(t, env.slots.Update(ctx, &slot))
		env.holds.set("session-a", 1, 2)

		req := reserveRequest("session-a", 1)
		req.NbBookedSeats = 1
		_, err := env.useCase.Execute(ctx, req)

		require.NoError(t, err)
		stored := env.slots.get(1)
		// 1 занято, неиспользованное из удержания вернулось в потенциальные
		assert.Equal(t, 2, stored.NbRemainingPlaces)
		assert.Equal(t, 2, stored.NbPotentialRemainingPlaces)
		assert.Nil(t, env.holds.ActiveHold("session-a", 1))
	})

	t.Run("валидация входных данных", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		req := reserveRequest("session-a", 1)
		req.NbBookedSeats = 0

		_, err := env.useCase.Execute(ctx, req)

		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestExecuteReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("перенос возвращает места старому слоту и занимает новый", func(t *testing.T) {
		oldSlot := openSlot(1, 3)
		oldSlot.NbRemainingPlaces = 2
		oldSlot.NbPotentialRemainingPlaces = 2
		oldSlot.NbPlacesTaken = 1
		newSlot := openSlot(2, 3)
		newSlot.StartingDateTime = time.Date(2025, time.October, 14, 9, 0, 0, 0, time.UTC)
		newSlot.EndingDateTime = time.Date(2025, time.October, 14, 9, 30, 0, 0, time.UTC)

		env := newTestEnv(testForm(), oldSlot, newSlot)

		existing, err := env.appointments.Create(ctx, &domain.Appointment{
			FormID:        1,
			Reference:     "APT-TEST0001",
			UserID:        10,
			UserEmail:     "user@example.com",
			NbBookedSeats: 1,
			Slots:         []domain.AppointmentSlot{{SlotID: 1, NbPlaces: 1}},
		})
		require.NoError(t, err)

		req := reserveRequest("session-b", 2)
		req.AppointmentID = existing.ID

		resp, err := env.useCase.Execute(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, existing.ID, resp.AppointmentID)

		released := env.slots.get(1)
		assert.Equal(t, 3, released.NbRemainingPlaces)
		assert.Equal(t, 0, released.NbPlacesTaken)

		taken := env.slots.get(2)
		assert.Equal(t, 2, taken.NbRemainingPlaces)
		assert.Equal(t, 1, taken.NbPlacesTaken)

		assert.Len(t, env.events.ofType(notify.EventAppointmentDateChanged), 1)
		assert.Empty(t, env.events.ofType(notify.EventAppointmentCreated))
	})

	t.Run("перенос с пересечением наборов не теряет место на общем слоте", func(t *testing.T) {
		first := partiallyBookedSlot(1, 3, 1)
		shared := partiallyBookedSlot(2, 3, 1)
		third := partiallyBookedSlot(3, 3, 1)
		env := newTestEnv(testForm(), first, shared, third)

		existing, err := env.appointments.Create(ctx, &domain.Appointment{
			FormID:        1,
			Reference:     "APT-TEST0002",
			UserID:        10,
			UserEmail:     "user@example.com",
			NbBookedSeats: 1,
			Slots: []domain.AppointmentSlot{
				{SlotID: 1, NbPlaces: 1},
				{SlotID: 2, NbPlaces: 1},
			},
		})
		require.NoError(t, err)

		req := reserveRequest("session-b", 2, 3)
		req.AppointmentID = existing.ID

		_, err = env.useCase.Execute(ctx, req)

		require.NoError(t, err)

		released := env.slots.get(1)
		assert.Equal(t, 0, released.NbPlacesTaken)
		assert.Equal(t, 3, released.NbRemainingPlaces)

		// общий слот: прежнее место возвращено, новое занято
		kept := env.slots.get(2)
		assert.Equal(t, 1, kept.NbPlacesTaken)
		assert.Equal(t, 2, kept.NbRemainingPlaces)
		assert.Equal(t, 2, kept.NbPotentialRemainingPlaces)

		taken := env.slots.get(3)
		assert.Equal(t, 2, taken.NbPlacesTaken)
		assert.Equal(t, 1, taken.NbRemainingPlaces)

		assert.Len(t, env.events.ofType(notify.EventAppointmentDateChanged), 1)
	})

	t.Run("правка мест без смены слотов возвращает прежние места", func(t *testing.T) {
		env := newTestEnv(testForm(), partiallyBookedSlot(1, 3, 1))

		existing, err := env.appointments.Create(ctx, &domain.Appointment{
			FormID:        1,
			Reference:     "APT-TEST0003",
			UserID:        10,
			UserEmail:     "user@example.com",
			NbBookedSeats: 1,
			Slots:         []domain.AppointmentSlot{{SlotID: 1, NbPlaces: 1}},
		})
		require.NoError(t, err)

		req := reserveRequest("session-b", 1)
		req.AppointmentID = existing.ID
		req.NbBookedSeats = 2

		_, err = env.useCase.Execute(ctx, req)

		require.NoError(t, err)

		stored := env.slots.get(1)
		assert.Equal(t, 2, stored.NbPlacesTaken)
		assert.Equal(t, 1, stored.NbRemainingPlaces)
		assert.Equal(t, 1, stored.NbPotentialRemainingPlaces)

		updated, err := env.appointments.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.NbBookedSeats)

		assert.Len(t, env.events.ofType(notify.EventAppointmentUpdated), 1)
		assert.Empty(t, env.events.ofType(notify.EventAppointmentDateChanged))
		assert.Empty(t, env.events.ofType(notify.EventAppointmentCreated))
	})

	t.Run("перенос несуществующей записи", func(t *testing.T) {
		env := newTestEnv(testForm(), openSlot(1, 3))

		req := reserveRequest("session-a", 1)
		req.AppointmentID = 404

		_, err := env.useCase.Execute(ctx, req)

		require.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

// Конкурентные бронирования одного слота: мест достается ровно стольким,
// сколько их на слоте
func TestExecuteConcurrent(t *testing.T) {
	env := newTestEnv(testForm(), openSlot(1, 3))

	const attempts = 10
	var wg sync.WaitGroup
	errsCh := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := reserveRequest("session-"+string(rune('a'+n)), 1)
			req.UserEmail = "user" + string(rune('a'+n)) + "@example.com"
			_, err := env.useCase.Execute(context.Background(), req)
			errsCh <- err
		}(i)
	}
	wg.Wait()
	close(errsCh)

	succeeded, full := 0, 0
	for err := range errsCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 7, full)
	assert.Equal(t, 3, env.appointments.count())

	stored := env.slots.get(1)
	assert.Equal(t, 0, stored.NbRemainingPlaces)
	assert.Equal(t, 3, stored.NbPlacesTaken)
}
