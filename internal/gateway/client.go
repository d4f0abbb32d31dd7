package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"wildfire/internal/models"
	"wildfire/internal/types"
)

// ErrGateway — единственный вид ошибки обращения к шлюзу:
// сеть, статус не 2xx, битый JSON или отсутствующее поле message.
var ErrGateway = errors.New("gateway request failed")

const (
	HelloPath    = "/api/hello"
	PostDataPath = "/api/post-data"
)

// Recorder получает запись о каждом обращении к шлюзу
type Recorder interface {
	Record(ctx context.Context, exchange models.Exchange) error
}

type viewIDKey struct{}

// WithViewID помечает контекст идентификатором представления для журнала
func WithViewID(ctx context.Context, viewID string) context.Context {
	return context.WithValue(ctx, viewIDKey{}, viewID)
}

func viewIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(viewIDKey{}).(string)
	return id
}

// Client — HTTP-клиент шлюза бэкенда
type Client struct {
	baseURL    string
	httpClient *http.Client
	recorder   Recorder
	logger     *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New создает клиент. Таймаут у клиента по умолчанию не задан.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Hello выполняет GET /api/hello и возвращает поле message
func (c *Client) Hello(ctx context.Context) (string, error) {
	return c.do(ctx, http.MethodGet, HelloPath, nil)
}

// PostData отправляет сетку на /api/post-data и возвращает поле message
func (c *Client) PostData(ctx context.Context, data types.Payload) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("кодирование тела запроса: %v: %w", err, ErrGateway)
	}
	return c.do(ctx, http.MethodPost, PostDataPath, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (string, error) {
	started := time.Now()
	exchange := models.Exchange{
		ID:        uuid.NewString(),
		ViewID:    viewIDFrom(ctx),
		Method:    method,
		Path:      path,
		CreatedAt: started.UTC(),
	}

	message, status, err := c.roundTrip(ctx, method, path, body)
	exchange.Status = status
	exchange.Duration = time.Since(started)
	if err != nil {
		exchange.Error = err.Error()
	} else {
		exchange.Message = message
	}
	c.record(ctx, exchange)

	return message, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (string, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", 0, fmt.Errorf("создание запроса %s %s: %v: %w", method, path, err, ErrGateway)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%s %s: %v: %w", method, path, err, ErrGateway)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("чтение ответа %s: %v: %w", path, err, ErrGateway)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("%s %s: статус %d: %w", method, path, resp.StatusCode, ErrGateway)
	}

	message, err := DecodeMessage(raw)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return message, resp.StatusCode, nil
}

// DecodeMessage извлекает поле message из JSON-объекта
func DecodeMessage(raw []byte) (string, error) {
	var decoded types.MessageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("разбор ответа: %v: %w", err, ErrGateway)
	}
	if decoded.Message == nil {
		return "", fmt.Errorf("в ответе нет поля message: %w", ErrGateway)
	}
	return *decoded.Message, nil
}

func (c *Client) record(ctx context.Context, exchange models.Exchange) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), exchange); err != nil {
		c.logger.Printf("Не удалось записать обращение %s в журнал: %v", exchange.ID, err)
	}
}
