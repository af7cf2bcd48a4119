package planning

import "errors"

var (
	// ErrWeekDefinitionNotFound - определение недели не найдено
	ErrWeekDefinitionNotFound = errors.New("planning.repository: week definition not found")

	// ErrTimeSlotNotFound - шаблон временного интервала не найден
	ErrTimeSlotNotFound = errors.New("planning.repository: time slot not found")

	// ErrBuildQuery - ошибка построения SQL запроса
	ErrBuildQuery = errors.New("planning.repository: failed to build query")

	// ErrExecQuery - ошибка выполнения SQL запроса
	ErrExecQuery = errors.New("planning.repository: failed to execute query")

	// ErrScanRow - ошибка сканирования строки результата
	ErrScanRow = errors.New("planning.repository: failed to scan row")
)
