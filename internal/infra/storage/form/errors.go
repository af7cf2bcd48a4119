package form

import "errors"

var (
	// ErrFormNotFound - форма не найдена
	ErrFormNotFound = errors.New("form.repository: form not found")

	// ErrBuildQuery - ошибка построения SQL запроса
	ErrBuildQuery = errors.New("form.repository: failed to build query")

	// ErrExecQuery - ошибка выполнения SQL запроса
	ErrExecQuery = errors.New("form.repository: failed to execute query")

	// ErrScanRow - ошибка сканирования строки результата
	ErrScanRow = errors.New("form.repository: failed to scan row")
)
