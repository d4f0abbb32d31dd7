package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"wildfire/internal/grid"
	"wildfire/internal/models"
	"wildfire/internal/types"
	"wildfire/internal/view"
)

type stubGateway struct {
	hello string
	post  string
}

func (g *stubGateway) Hello(ctx context.Context) (string, error) {
	return g.hello, nil
}

func (g *stubGateway) PostData(ctx context.Context, data types.Payload) (string, error) {
	return g.post, nil
}

type stubJournal struct {
	exchanges []models.Exchange
}

func (j *stubJournal) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if limit < len(j.exchanges) {
		return j.exchanges[:limit], nil
	}
	return j.exchanges, nil
}

func newTestServer(t *testing.T, gw view.Gateway, fetchOnMount bool, opts Options) (*Server, *view.Registry) {
	t.Helper()
	reg := view.NewRegistry(func(id string) *view.View {
		return view.New(id, gw, view.WithFetchOnMount(fetchOnMount))
	}, time.Hour)

	if opts.Grid == nil {
		g, err := grid.New(3, 3, grid.Sequential)
		if err != nil {
			t.Fatalf("grid.New() ошибка: %v", err)
		}
		opts.Grid = g
	}

	srv, err := NewServer(reg, opts)
	if err != nil {
		t.Fatalf("NewServer() ошибка: %v", err)
	}
	return srv, reg
}

func viewCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("cookie %s не установлена", CookieName)
	return nil
}

func TestPageRendersGridAndMountsView(t *testing.T) {
	srv, reg := newTestServer(t, &stubGateway{hello: "X"}, true, Options{})
	router := srv.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET / код статуса = %v", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Wildfire Evacuation", "Update", "Response from Flask backend:"} {
		if !strings.Contains(body, want) {
			t.Errorf("страница не содержит %q", want)
		}
	}

	labels := regexp.MustCompile(`class="square"[^>]*>(\d+)<`).FindAllStringSubmatch(body, -1)
	if len(labels) != 9 {
		t.Fatalf("клеток на странице = %d, ожидается 9", len(labels))
	}
	for i, m := range labels {
		if m[1] != strconv.Itoa(i+1) {
			t.Errorf("клетка %d подписана %s", i, m[1])
		}
	}

	cookie := viewCookie(t, w)
	v, ok := reg.Get(cookie.Value)
	if !ok {
		t.Fatalf("представление %s не зарегистрировано", cookie.Value)
	}
	v.Wait()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `<span id="message">X</span>`) {
		t.Errorf("после ответа GET /api/hello сообщение должно быть X")
	}
	if reg.Len() != 1 {
		t.Errorf("повторный заход с cookie не должен создавать представление, Len() = %d", reg.Len())
	}
}

func TestShadedGridOpacity(t *testing.T) {
	g, _ := grid.New(20, 20, grid.Shaded)
	srv, _ := newTestServer(t, &stubGateway{}, false, Options{Grid: g, Shader: grid.NewSource(3)})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	matches := regexp.MustCompile(`opacity: ([0-9.]+)`).FindAllStringSubmatch(w.Body.String(), -1)
	if len(matches) != 400 {
		t.Fatalf("клеток с прозрачностью = %d, ожидается 400", len(matches))
	}
	for _, m := range matches {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil || f < 0 || f > 1 {
			t.Errorf("прозрачность %q вне [0,1]", m[1])
		}
	}
}

func TestUpdateThenPollMessage(t *testing.T) {
	srv, reg := newTestServer(t, &stubGateway{post: "Data received successfully!"}, false, Options{})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/update", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /update код статуса = %v, ожидается %v", w.Code, http.StatusAccepted)
	}
	cookie := viewCookie(t, w)
	v, _ := reg.Get(cookie.Value)
	v.Wait()

	req = httptest.NewRequest(http.MethodGet, "/view/message", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var got MessageView
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Невозможно распарсить ответ: %v", err)
	}
	if got.Message != "Data received successfully!" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestUpdateFormRedirects(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{}, false, Options{})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/update", nil))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("POST /update = %v %q, ожидается 303 на /", w.Code, w.Header().Get("Location"))
	}
}

func TestMessageUnknownView(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{}, false, Options{})
	router := srv.Router()

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"без cookie", nil},
		{"неизвестный id", &http.Cookie{Name: CookieName, Value: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/view/message", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("код статуса = %v, ожидается %v", w.Code, http.StatusNotFound)
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	disabled, _ := newTestServer(t, &stubGateway{}, false, Options{})
	w := httptest.NewRecorder()
	disabled.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diagnostics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("без журнала код статуса = %v, ожидается 404", w.Code)
	}

	journal := &stubJournal{exchanges: []models.Exchange{
		{ID: "1", Method: "GET", Path: "/api/hello", Status: 200},
		{ID: "2", Method: "POST", Path: "/api/post-data", Error: "boom"},
	}}
	enabled, _ := newTestServer(t, &stubGateway{}, false, Options{Journal: journal})
	w = httptest.NewRecorder()
	enabled.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diagnostics?limit=1", nil))

	var list models.ExchangeList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Невозможно распарсить ответ: %v", err)
	}
	if w.Code != http.StatusOK || len(list.Exchanges) != 1 || list.Exchanges[0].ID != "1" {
		t.Errorf("GET /diagnostics = %v %+v", w.Code, list)
	}
}

func TestAPIProxyMounted(t *testing.T) {
	proxied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("proxied " + r.URL.Path))
	})
	srv, _ := newTestServer(t, &stubGateway{}, false, Options{APIProxy: proxied})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hello", nil))

	if w.Body.String() != "proxied /api/hello" {
		t.Errorf("GET /api/hello = %q", w.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{}, false, Options{})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/view.js", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/view/message") {
		t.Errorf("GET /static/view.js = %v", w.Code)
	}
}

func TestMessageRenderer(t *testing.T) {
	tests := []struct {
		name     string
		markdown bool
		in       string
		contains string
		absent   string
	}{
		{"текст экранируется", false, "<b>hi</b>", "&lt;b&gt;hi&lt;/b&gt;", "<b>"},
		{"markdown выделение", true, "**fire**", "<strong>fire</strong>", ""},
		{"markdown без скриптов", true, "hi <script>alert(1)</script>", "hi", "<script>"},
		{"пустое сообщение", true, "", "", "<p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(newMessageRenderer(tt.markdown).render(tt.in))
			if !strings.Contains(got, tt.contains) {
				t.Errorf("render(%q) = %q, ожидается %q", tt.in, got, tt.contains)
			}
			if tt.absent != "" && strings.Contains(got, tt.absent) {
				t.Errorf("render(%q) = %q не должен содержать %q", tt.in, got, tt.absent)
			}
		})
	}
}
