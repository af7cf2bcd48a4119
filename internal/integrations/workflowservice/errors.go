package workflowservice

import "errors"

var (
	// ErrStateNotFound возвращается, когда у ресурса нет состояния workflow
	ErrStateNotFound = errors.New("workflow resource has no state")

	// ErrActionNotFound возвращается, когда действие workflow не найдено
	ErrActionNotFound = errors.New("workflow action not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("workflowservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("workflowservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Указывает, что WorkflowService недоступен: запись создана, действие
	// workflow не выполнено
	ErrServiceDegraded = errors.New("workflowservice unavailable: graceful degradation applied")
)
