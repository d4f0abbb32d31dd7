package view

import (
	"context"
	"log"
	"sync"
	"time"

	"wildfire/internal/gateway"
	"wildfire/internal/types"
)

// Gateway — обращения представления к бэкенду
type Gateway interface {
	Hello(ctx context.Context) (string, error)
	PostData(ctx context.Context, data types.Payload) (string, error)
}

// View хранит отображаемое сообщение одной страницы.
// Каждый вызов Mount/Click порождает ровно один запрос в отдельной горутине;
// запросы не отменяются, не повторяются и не объединяются.
// Сообщение перезаписывает тот ответ, который пришел последним.
type View struct {
	id           string
	gw           Gateway
	fetchOnMount bool
	payload      func() types.Payload
	logger       *log.Logger

	mu        sync.Mutex
	message   string
	mounted   bool
	unmounted bool
	lastSeen  time.Time

	inflight sync.WaitGroup
}

type Option func(*View)

// WithFetchOnMount включает GET /api/hello при монтировании
func WithFetchOnMount(enabled bool) Option {
	return func(v *View) { v.fetchOnMount = enabled }
}

// WithLogger задает диагностический канал
func WithLogger(l *log.Logger) Option {
	return func(v *View) { v.logger = l }
}

// WithPayload задает построитель тела POST-запроса
func WithPayload(build func() types.Payload) Option {
	return func(v *View) { v.payload = build }
}

func New(id string, gw Gateway, opts ...Option) *View {
	v := &View{
		id:       id,
		gw:       gw,
		payload:  types.DefaultPayload,
		logger:   log.Default(),
		lastSeen: time.Now(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) ID() string {
	return v.id
}

// Message возвращает текущее сообщение
func (v *View) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Mount монтирует представление. Повторный вызов ничего не делает.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.unmounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.mu.Unlock()

	if !v.fetchOnMount {
		return
	}
	v.fire(ctx, "GET "+gateway.HelloPath, func(ctx context.Context) (string, error) {
		return v.gw.Hello(ctx)
	})
}

// Click — нажатие кнопки: один POST на каждый вызов
func (v *View) Click(ctx context.Context) {
	data := v.payload()
	v.fire(ctx, "POST "+gateway.PostDataPath, func(ctx context.Context) (string, error) {
		return v.gw.PostData(ctx, data)
	})
}

// Unmount отбрасывает состояние; ответы, пришедшие позже, игнорируются
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unmounted = true
	v.message = ""
}

func (v *View) Unmounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unmounted
}

// Wait ждет завершения всех запросов, запущенных к этому моменту
func (v *View) Wait() {
	v.inflight.Wait()
}

// Touch отмечает активность пользователя
func (v *View) Touch(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = now
}

func (v *View) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

func (v *View) fire(ctx context.Context, call string, do func(context.Context) (string, error)) {
	// запрос живет дольше вызвавшего его HTTP-запроса
	ctx = gateway.WithViewID(context.WithoutCancel(ctx), v.id)

	v.inflight.Add(1)
	go func() {
		defer v.inflight.Done()

		message, err := do(ctx)
		if err != nil {
			v.logger.Printf("Ошибка %s для представления %s: %v", call, v.id, err)
			return
		}
		v.setMessage(message)
	}()
}

func (v *View) setMessage(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unmounted {
		return
	}
	v.message = message
}
