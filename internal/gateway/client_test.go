package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"wildfire/internal/models"
	"wildfire/internal/types"
)

type memoryRecorder struct {
	mu        sync.Mutex
	exchanges []models.Exchange
	err       error
}

func (m *memoryRecorder) Record(ctx context.Context, exchange models.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append(m.exchanges, exchange)
	return m.err
}

func TestHello(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != HelloPath {
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "X"}`))
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := New(server.URL+"/", WithRecorder(recorder))

	got, err := client.Hello(WithViewID(context.Background(), "view-1"))
	if err != nil {
		t.Fatalf("Hello() ошибка: %v", err)
	}
	if got != "X" {
		t.Errorf("Hello() = %q, ожидается %q", got, "X")
	}

	if len(recorder.exchanges) != 1 {
		t.Fatalf("записей в журнале = %d, ожидается 1", len(recorder.exchanges))
	}
	ex := recorder.exchanges[0]
	if ex.ViewID != "view-1" || ex.Status != http.StatusOK || ex.Message != "X" || ex.Failed() {
		t.Errorf("неожиданная запись журнала: %+v", ex)
	}
}

func TestPostDataSendsFixedGrid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PostDataPath {
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var payload [][]int
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("тело не JSON: %v", err)
		}
		if len(payload) != 3 || payload[2][2] != 9 {
			t.Errorf("неожиданная сетка: %v", payload)
		}
		w.Write([]byte(`{"message": "Data received successfully!", "data": [[1,2,3],[4,5,6],[7,8,9]]}`))
	}))
	defer server.Close()

	got, err := New(server.URL).PostData(context.Background(), types.DefaultPayload())
	if err != nil {
		t.Fatalf("PostData() ошибка: %v", err)
	}
	if got != "Data received successfully!" {
		t.Errorf("PostData() = %q", got)
	}
}

func TestGatewayFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"битый JSON", http.StatusOK, `{"message": `},
		{"нет поля message", http.StatusOK, `{"data": 1}`},
		{"message не строка", http.StatusOK, `{"message": 42}`},
		{"message null", http.StatusOK, `{"message": null}`},
		{"ошибка сервера", http.StatusInternalServerError, `{"message": "boom"}`},
		{"не найдено", http.StatusNotFound, `<html>404</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			recorder := &memoryRecorder{}
			_, err := New(server.URL, WithRecorder(recorder)).Hello(context.Background())
			if !errors.Is(err, ErrGateway) {
				t.Errorf("Hello() ошибка = %v, ожидается ErrGateway", err)
			}
			if len(recorder.exchanges) != 1 || !recorder.exchanges[0].Failed() {
				t.Errorf("неудачное обращение должно попасть в журнал: %+v", recorder.exchanges)
			}
		})
	}
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url).PostData(context.Background(), types.DefaultPayload())
	if !errors.Is(err, ErrGateway) {
		t.Errorf("PostData() ошибка = %v, ожидается ErrGateway", err)
	}
}

func TestRecorderErrorIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "ok"}`))
	}))
	defer server.Close()

	recorder := &memoryRecorder{err: errors.New("диск заполнен")}
	got, err := New(server.URL, WithRecorder(recorder)).Hello(context.Background())
	if err != nil || got != "ok" {
		t.Errorf("Hello() = %q, %v; ошибка журнала не должна влиять на результат", got, err)
	}
}
