package workflowservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с WorkflowService. Через него записи на прием
// получают начальное состояние workflow и действия при создании, переносе
// и отмене.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента WorkflowService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetState получает состояние ресурса в workflow
func (c *Client) GetState(ctx context.Context, resourceID int64, resourceType string, workflowID int64) (*State, error) {
	url := fmt.Sprintf("%s/internal/workflows/%d/resources/%s/%d/state", c.baseURL, workflowID, resourceType, resourceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return nil, ErrStateNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return &state, nil
}

// ProcessAction выполняет действие workflow над ресурсом
func (c *Client) ProcessAction(ctx context.Context, request ProcessActionRequest) error {
	url := fmt.Sprintf("%s/internal/workflows/%d/actions/%d/process", c.baseURL, request.WorkflowID, request.ActionID)

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrActionNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}
}

// ProcessActionWithGracefulDegradation выполняет действие workflow с graceful
// degradation: недоступность WorkflowService не откатывает уже созданную
// запись на прием
func (c *Client) ProcessActionWithGracefulDegradation(ctx context.Context, request ProcessActionRequest) error {
	err := c.ProcessAction(ctx, request)
	if err == nil {
		return nil
	}
	if err == ErrActionNotFound {
		c.log.Warn("ProcessAction: workflow action=%d not found for resource=%d", request.ActionID, request.ResourceID)
		return err
	}

	c.log.Error("WorkflowService unavailable, applying graceful degradation for resource=%d: %v", request.ResourceID, err)
	return fmt.Errorf("%w: resource=%d, error=%v", ErrServiceDegraded, request.ResourceID, err)
}
