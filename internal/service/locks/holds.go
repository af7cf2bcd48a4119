package locks

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hold временное удержание мест на слоте от имени сессии пользователя.
// Пока пользователь заполняет форму, удержанные места вычтены из
// потенциально свободных, чтобы слот не показывался другим как доступный.
type Hold struct {
	ID        string
	SessionID string
	SlotID    int64
	NbPlaces  int
	ExpiresAt time.Time

	expired bool
	index   int // позиция в куче истечений
}

// HoldService ведет активные удержания и возвращает места по истечении TTL.
// Вместо таймера на каждое удержание работает один планировщик на куче
// истечений: следующий срок будит единственную горутину.
type HoldService struct {
	slots  SlotRepository
	locks  *Manager
	logger Logger
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	queue   expiryHeap
	byKey   map[string]*Hold // ключ sessionID + slotID
	wakeCh  chan struct{}
	stopCh  chan struct{}
	stopped sync.Once
}

// NewHoldService создает сервис удержаний. Планировщик истечений запускается
// отдельно методом Run.
func NewHoldService(slots SlotRepository, locks *Manager, logger Logger, ttl time.Duration) *HoldService {
	return &HoldService{
		slots:  slots,
		locks:  locks,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
		queue:  make(expiryHeap, 0),
		byKey:  make(map[string]*Hold),
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

func holdKey(sessionID string, slotID int64) string {
	return fmt.Sprintf("%s:%d", sessionID, slotID)
}

// HoldSeats удерживает места на слоте для сессии. Количество удержанных мест
// равно min(потенциально свободные, максимум людей на запись). Повторное
// удержание того же слота той же сессией сначала снимает предыдущее.
func (s *HoldService) HoldSeats(ctx context.Context, sessionID string, slotID int64, maxPeoplePerAppointment int) (*Hold, error) {
	lock := s.locks.SlotLock(slotID)
	lock.Acquire()
	defer lock.Release()

	if prev := s.takeHold(sessionID, slotID); prev != nil {
		if err := s.restorePlaces(ctx, prev); err != nil {
			return nil, err
		}
	}

	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("%w: HoldSeats - fetch slot %d: %v", ErrInternal, slotID, err)
	}

	nbPlaces := slot.NbPotentialRemainingPlaces
	if maxPeoplePerAppointment < nbPlaces {
		nbPlaces = maxPeoplePerAppointment
	}
	if nbPlaces <= 0 {
		return nil, ErrNoPlacesAvailable
	}

	err = s.slots.UpdatePotentialRemainingPlaces(ctx, slotID, slot.NbPotentialRemainingPlaces-nbPlaces)
	if err != nil {
		return nil, fmt.Errorf("%w: HoldSeats - update potential places on slot %d: %v", ErrInternal, slotID, err)
	}

	hold := &Hold{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		SlotID:    slotID,
		NbPlaces:  nbPlaces,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.registerHold(hold)

	s.logger.Info("HoldSeats: held %d places on slot=%d for session=%s until %s",
		nbPlaces, slotID, sessionID, hold.ExpiresAt.Format(time.RFC3339))
	return hold, nil
}

// ReleaseHold снимает удержание и возвращает места слоту
func (s *HoldService) ReleaseHold(ctx context.Context, sessionID string, slotID int64) error {
	lock := s.locks.SlotLock(slotID)
	lock.Acquire()
	defer lock.Release()

	hold := s.takeHold(sessionID, slotID)
	if hold == nil {
		return ErrHoldNotFound
	}
	if err := s.restorePlaces(ctx, hold); err != nil {
		return err
	}

	s.logger.Info("ReleaseHold: released %d places on slot=%d for session=%s", hold.NbPlaces, slotID, sessionID)
	return nil
}

// CancelHold снимает удержание без возврата мест. Используется координатором
// бронирования после успешной фиксации: места уже учтены как занятые.
// Счетчики слота не трогаются, поэтому блокировка слота не нужна и вызов
// безопасен из-под нее.
func (s *HoldService) CancelHold(sessionID string, slotID int64) {
	s.takeHold(sessionID, slotID)
}

// ActiveHold возвращает активное удержание сессии на слоте, если оно есть
func (s *HoldService) ActiveHold(sessionID string, slotID int64) *Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byKey[holdKey(sessionID, slotID)]
}

// Run запускает планировщик истечений. Блокирует до закрытия контекста или
// вызова Stop.
func (s *HoldService) Run(ctx context.Context) {
	for {
		timer := s.nextTimer()
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.wakeCh:
			timer.Stop()
		case <-timer.C:
			s.expireDue(ctx)
		}
	}
}

// Stop останавливает планировщик истечений
func (s *HoldService) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}

// nextTimer возвращает таймер до ближайшего истечения. Без активных
// удержаний планировщик спит до пробуждения через wakeCh.
func (s *HoldService) nextTimer() *time.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return time.NewTimer(time.Hour)
	}
	d := s.queue[0].ExpiresAt.Sub(s.now())
	if d < 0 {
		d = 0
	}
	return time.NewTimer(d)
}

// expireDue возвращает места всех удержаний, чей срок прошел
func (s *HoldService) expireDue(ctx context.Context) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].ExpiresAt.After(s.now()) {
			s.mu.Unlock()
			return
		}
		hold := heap.Pop(&s.queue).(*Hold)
		hold.expired = true
		delete(s.byKey, holdKey(hold.SessionID, hold.SlotID))
		s.mu.Unlock()

		s.expireHold(ctx, hold)
	}
}

func (s *HoldService) expireHold(ctx context.Context, hold *Hold) {
	lock := s.locks.SlotLock(hold.SlotID)
	lock.Acquire()
	defer lock.Release()

	if err := s.restorePlaces(ctx, hold); err != nil {
		s.logger.Error("expireHold: failed to restore %d places on slot=%d: %v", hold.NbPlaces, hold.SlotID, err)
		return
	}
	s.logger.Info("expireHold: hold on slot=%d for session=%s expired, %d places restored",
		hold.SlotID, hold.SessionID, hold.NbPlaces)
}

// restorePlaces возвращает удержанные места слоту. Результат ограничен сверху
// числом реально свободных мест: за время удержания слот мог быть
// забронирован или урезан.
func (s *HoldService) restorePlaces(ctx context.Context, hold *Hold) error {
	slot, err := s.slots.FindByID(ctx, hold.SlotID)
	if err != nil {
		return fmt.Errorf("%w: restorePlaces - fetch slot %d: %v", ErrInternal, hold.SlotID, err)
	}

	restored := slot.NbPotentialRemainingPlaces + hold.NbPlaces
	if restored > slot.NbRemainingPlaces {
		restored = slot.NbRemainingPlaces
	}

	err = s.slots.UpdatePotentialRemainingPlaces(ctx, hold.SlotID, restored)
	if err != nil {
		return fmt.Errorf("%w: restorePlaces - update potential places on slot %d: %v", ErrInternal, hold.SlotID, err)
	}
	return nil
}

// registerHold ставит удержание в реестр и кучу истечений
func (s *HoldService) registerHold(hold *Hold) {
	s.mu.Lock()
	heap.Push(&s.queue, hold)
	s.byKey[holdKey(hold.SessionID, hold.SlotID)] = hold
	s.mu.Unlock()

	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// takeHold снимает удержание с реестра и кучи, возвращая его вызывающему.
// Возвращает nil, если активного удержания нет.
func (s *HoldService) takeHold(sessionID string, slotID int64) *Hold {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.byKey[holdKey(sessionID, slotID)]
	if !ok {
		return nil
	}
	delete(s.byKey, holdKey(sessionID, slotID))
	if !hold.expired && hold.index >= 0 && hold.index < len(s.queue) {
		heap.Remove(&s.queue, hold.index)
	}
	return hold
}

// expiryHeap мин-куча удержаний по сроку истечения
type expiryHeap []*Hold

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool { return h[i].ExpiresAt.Before(h[j].ExpiresAt) }

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x interface{}) {
	hold := x.(*Hold)
	hold.index = len(*h)
	*h = append(*h, hold)
}

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	hold := old[n-1]
	old[n-1] = nil
	hold.index = -1
	*h = old[:n-1]
	return hold
}
