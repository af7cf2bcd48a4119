package rule

import "errors"

var (
	// ErrRuleNotFound - правило бронирования не найдено
	ErrRuleNotFound = errors.New("rule.repository: reservation rule not found")

	// ErrBuildQuery - ошибка построения SQL запроса
	ErrBuildQuery = errors.New("rule.repository: failed to build query")

	// ErrExecQuery - ошибка выполнения SQL запроса
	ErrExecQuery = errors.New("rule.repository: failed to execute query")

	// ErrScanRow - ошибка сканирования строки результата
	ErrScanRow = errors.New("rule.repository: failed to scan row")
)
