package workflowservice

// State состояние ресурса в workflow
type State struct {
	ID          int64  `json:"id"`
	WorkflowID  int64  `json:"workflow_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsInitial   bool   `json:"is_initial"`
}

// ProcessActionRequest запрос на выполнение действия workflow над ресурсом
type ProcessActionRequest struct {
	ResourceID   int64  `json:"resource_id"`
	ResourceType string `json:"resource_type"`
	WorkflowID   int64  `json:"workflow_id"`
	ActionID     int64  `json:"action_id"`
	UserAccess   bool   `json:"user_access"`
}

// ErrorResponse модель ошибки от WorkflowService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
