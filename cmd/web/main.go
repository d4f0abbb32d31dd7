package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wildfire/internal/config"
	"wildfire/internal/database"
	"wildfire/internal/gateway"
	"wildfire/internal/grid"
	"wildfire/internal/proxy"
	"wildfire/internal/view"
	"wildfire/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gatewayOpts := []gateway.Option{}
	var journal *database.Journal
	if cfg.JournalEnabled() {
		journal, err = database.Open(cfg.DiagDriver, cfg.DiagDSN)
		if err != nil {
			log.Fatalf("Не удалось открыть журнал диагностики: %v", err)
		}
		defer journal.Close()
		gatewayOpts = append(gatewayOpts, gateway.WithRecorder(journal))
		log.Printf("Журнал диагностики: %s", cfg.DiagDriver)
	}
	gw := gateway.New(cfg.BackendURL, gatewayOpts...)

	variant, err := grid.ParseVariant(cfg.PageVariant)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	g, err := grid.New(cfg.GridRows, cfg.GridCols, variant)
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	registry := view.NewRegistry(func(id string) *view.View {
		return view.New(id, gw, view.WithFetchOnMount(cfg.FetchOnMount))
	}, cfg.SessionTTL)
	go registry.Run(ctx, time.Minute)

	apiProxy, err := proxy.New(cfg.BackendURL)
	if err != nil {
		log.Fatalf("Ошибка настройки прокси: %v", err)
	}

	opts := web.Options{
		Grid:     g,
		Shader:   grid.NewSource(cfg.GridSeed),
		Markdown: cfg.MessageFormat == config.FormatMarkdown,
		APIProxy: apiProxy,
	}
	if journal != nil {
		opts.Journal = journal
	}
	server, err := web.NewServer(registry, opts)
	if err != nil {
		log.Fatalf("Ошибка инициализации шаблонов: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.WebPort,
		Handler: server.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Страница %s %dx%d, бэкенд %s", cfg.PageVariant, cfg.GridRows, cfg.GridCols, cfg.BackendURL)
	log.Printf("Starting HTTP server on port %s", cfg.WebPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Ошибка HTTP-сервера: %v", err)
	}
}
