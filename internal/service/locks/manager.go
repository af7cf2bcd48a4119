package locks

import (
	"sync"
	"time"
)

// Lock мьютекс с ожиданием с таймаутом. Построен на канале, потому что
// sync.Mutex не поддерживает ограниченное по времени взятие.
//
// Блокировка из реестра Manager берет канал актуальной записи реестра и
// после взятия сверяет владельца с реестром: если запись успели вычистить и
// заменить, взятие откатывается и повторяется на новом экземпляре. Держатель
// поэтому всегда ровно один, даже когда чистка реестра совпала со взятием по
// ссылке, полученной раньше.
type Lock struct {
	ch   chan struct{}
	held chan struct{} // канал, взятый последним успешным Acquire

	reg  *Manager // nil для блокировок вне реестра
	id   int64
	form bool
}

func newLock() *Lock {
	return &Lock{ch: make(chan struct{}, 1)}
}

// owner возвращает экземпляр, каналом которого владеет блокировка: для
// блокировки из реестра это текущая запись реестра
func (l *Lock) owner() *Lock {
	if l.reg == nil {
		return l
	}
	return l.reg.current(l)
}

// settle после взятия канала сверяет владельца с реестром. Взятие по
// вычищенной и замененной записи откатывается, вызывающий повторяет попытку
// на актуальной.
func (l *Lock) settle(owner *Lock) bool {
	if l.reg == nil || l.reg.confirm(l, owner) {
		l.held = owner.ch
		return true
	}
	<-owner.ch
	return false
}

// Acquire блокирует до получения блокировки
func (l *Lock) Acquire() {
	for {
		owner := l.owner()
		owner.ch <- struct{}{}
		if l.settle(owner) {
			return
		}
	}
}

// AcquireTimeout пытается получить блокировку в течение timeout.
// Возвращает false, если блокировка занята дольше таймаута.
func (l *Lock) AcquireTimeout(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		owner := l.owner()
		timer := time.NewTimer(time.Until(deadline))
		select {
		case owner.ch <- struct{}{}:
			timer.Stop()
			if l.settle(owner) {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

// TryAcquire пытается получить блокировку без ожидания
func (l *Lock) TryAcquire() bool {
	for {
		owner := l.owner()
		select {
		case owner.ch <- struct{}{}:
			if l.settle(owner) {
				return true
			}
		default:
			return false
		}
	}
}

// Release освобождает блокировку. Вызывать только держателю.
func (l *Lock) Release() {
	<-l.held
}

// Manager реестр блокировок слотов и форм. Внедряется зависимостью во все
// сервисы, работающие с вместимостью слотов, чтобы конкурентные бронирования
// одного слота сериализовались на одном экземпляре Lock.
type Manager struct {
	mu        sync.Mutex
	slotLocks map[int64]*Lock
	formLocks map[int64]*Lock
}

// NewManager создает новый реестр блокировок
func NewManager() *Manager {
	return &Manager{
		slotLocks: make(map[int64]*Lock),
		formLocks: make(map[int64]*Lock),
	}
}

func (m *Manager) registry(form bool) map[int64]*Lock {
	if form {
		return m.formLocks
	}
	return m.slotLocks
}

// current возвращает актуальную запись реестра для блокировки l. Вычищенная
// запись возвращается на место.
func (m *Manager) current(l *Lock) *Lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg := m.registry(l.form)
	cur, ok := reg[l.id]
	if !ok {
		reg[l.id] = l
		return l
	}
	return cur
}

// confirm проверяет, что взятый канал все еще принадлежит записи реестра
func (m *Manager) confirm(l *Lock, owner *Lock) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg := m.registry(l.form)
	cur, ok := reg[l.id]
	if !ok {
		reg[l.id] = owner
		return true
	}
	return cur == owner
}

// SlotLock возвращает блокировку слота. Для слота с id = 0 (виртуальный, еще
// не сохраненный) каждый вызов возвращает свежую блокировку, не попадающую в
// реестр: конкурировать за несуществующую строку нечему.
func (m *Manager) SlotLock(slotID int64) *Lock {
	if slotID == 0 {
		return newLock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.slotLocks[slotID]
	if !ok {
		lock = &Lock{ch: make(chan struct{}, 1), reg: m, id: slotID}
		m.slotLocks[slotID] = lock
	}
	return lock
}

// FormLock возвращает блокировку формы. Используется при создании слота по
// дате и времени, чтобы два запроса не создали один слот дважды.
func (m *Manager) FormLock(formID int64) *Lock {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.formLocks[formID]
	if !ok {
		lock = &Lock{ch: make(chan struct{}, 1), reg: m, id: formID, form: true}
		m.formLocks[formID] = lock
	}
	return lock
}

// RemoveSlotLock удаляет блокировку слота из реестра, например после удаления
// самого слота
func (m *Manager) RemoveSlotLock(slotID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slotLocks, slotID)
}

// Sweep удаляет из реестра блокировки, которые сейчас никем не удерживаются.
// Запускается периодически, чтобы реестр не рос вместе с историей слотов.
// Возвращает количество удаленных блокировок.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, lock := range m.slotLocks {
		select {
		case lock.ch <- struct{}{}:
			<-lock.ch
			delete(m.slotLocks, id)
			removed++
		default:
		}
	}
	for id, lock := range m.formLocks {
		select {
		case lock.ch <- struct{}{}:
			<-lock.ch
			delete(m.formLocks, id)
			removed++
		default:
		}
	}
	return removed
}

// Size возвращает текущее количество зарегистрированных блокировок
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slotLocks) + len(m.formLocks)
}
