package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"wildfire/internal/grid"
	"wildfire/internal/models"
	"wildfire/internal/view"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// CookieName — cookie с идентификатором представления
const CookieName = "view_id"

// ExchangeLister отдает последние записи журнала диагностики
type ExchangeLister interface {
	Recent(ctx context.Context, limit int) ([]models.Exchange, error)
}

// Options настраивает сервер страницы
type Options struct {
	Title       string
	Description string

	Grid   *grid.Grid
	Shader grid.Shader

	// Markdown включает отображение сообщения как markdown
	Markdown bool

	// Journal может быть nil: тогда /diagnostics отвечает 404
	Journal ExchangeLister

	// APIProxy обслуживает /api/*; nil — маршрут не регистрируется
	APIProxy http.Handler
}

// Server отрисовывает страницу и принимает действия пользователя
type Server struct {
	templates *template.Template
	registry  *view.Registry
	opts      Options
	messages  *messageRenderer
	staticFS  http.FileSystem
}

func NewServer(registry *view.Registry, opts Options) (*Server, error) {
	if registry == nil {
		return nil, errors.New("web: registry is required")
	}
	if opts.Grid == nil {
		return nil, errors.New("web: grid is required")
	}
	if opts.Title == "" {
		opts.Title = "Wildfire Evacuation"
	}
	if opts.Description == "" {
		opts.Description = "Simulating wildfires with reinforcement learning!"
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	staticRoot, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	return &Server{
		templates: tmpl,
		registry:  registry,
		opts:      opts,
		messages:  newMessageRenderer(opts.Markdown),
		staticFS:  http.FS(staticRoot),
	}, nil
}

// Router настраивает маршруты страницы, API представления и прокси
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.HandlePage)
	r.Post("/update", s.HandleUpdate)
	r.Get("/view/message", s.HandleMessage)
	r.Get("/diagnostics", s.HandleDiagnostics)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(s.staticFS)))

	if s.opts.APIProxy != nil {
		r.Handle("/api/*", s.opts.APIProxy)
	}

	return r
}
