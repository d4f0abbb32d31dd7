package models

import "time"

// Exchange — запись журнала диагностики об одном обращении к шлюзу
type Exchange struct {
	ID        string        `json:"id"`
	ViewID    string        `json:"view_id,omitempty"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Failed сообщает, завершилось ли обращение ошибкой
func (e Exchange) Failed() bool {
	return e.Error != ""
}

// ExchangeList — ответ /diagnostics
type ExchangeList struct {
	Exchanges []Exchange `json:"exchanges"`
}
