package notify

import (
	"sync"
	"time"
)

// EventType тип события календаря
type EventType string

const (
	EventSlotCreated           EventType = "SLOT_CREATED"
	EventSlotChanged           EventType = "SLOT_CHANGED"
	EventSlotRemoved           EventType = "SLOT_REMOVED"
	EventSlotEndingTimeChanged EventType = "SLOT_ENDING_TIME_CHANGED"

	EventAppointmentCreated     EventType = "APPOINTMENT_CREATED"
	EventAppointmentUpdated     EventType = "APPOINTMENT_UPDATED"
	EventAppointmentDateChanged EventType = "APPOINTMENT_DATE_CHANGED"
	EventAppointmentCancelled   EventType = "APPOINTMENT_CANCELLED"
	EventAppointmentReactivated EventType = "APPOINTMENT_REACTIVATED"
	EventWorkflowActionRun      EventType = "WORKFLOW_ACTION_RUN"
)

// Event уведомление об изменении слота или записи на прием
type Event struct {
	Type          EventType
	FormID        int64
	SlotID        int64
	AppointmentID int64
	OccurredAt    time.Time
}

// Subscriber получатель событий календаря
type Subscriber interface {
	HandleCalendarEvent(event Event)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Dispatcher рассылает события календаря подписчикам. Подписчики
// регистрируются явно при сборке приложения, доставка асинхронная через
// буферизованный канал, чтобы рассылка не задерживала транзакцию
// бронирования.
type Dispatcher struct {
	logger Logger

	mu          sync.RWMutex
	subscribers []Subscriber

	events  chan Event
	done    chan struct{}
	stopped sync.Once
}

// NewDispatcher создает диспетчер событий с буфером указанного размера и
// запускает горутину доставки
func NewDispatcher(logger Logger, buffer int) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Subscribe регистрирует подписчика. Вызывается при сборке приложения, до
// начала обработки запросов.
func (d *Dispatcher) Subscribe(sub Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, sub)
}

// Publish ставит событие в очередь доставки. При переполненном буфере событие
// отбрасывается с предупреждением: уведомления не должны блокировать
// бронирование.
func (d *Dispatcher) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case d.events <- event:
	case <-d.done:
	default:
		d.logger.Warn("Publish: event buffer full, dropping %s for slot=%d", event.Type, event.SlotID)
	}
}

// Close останавливает доставку событий
func (d *Dispatcher) Close() {
	d.stopped.Do(func() { close(d.done) })
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case event := <-d.events:
			d.deliver(event)
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.mu.RLock()
	subscribers := make([]Subscriber, len(d.subscribers))
	copy(subscribers, d.subscribers)
	d.mu.RUnlock()

	for _, sub := range subscribers {
		sub.HandleCalendarEvent(event)
	}
}
