package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"wildfire/internal/config"
	"wildfire/internal/proxy"
)

// devproxy повторяет локальную маршрутизацию разработки:
// /api/* уходит на бэкенд, все остальное — на сервер страницы.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	router, err := newRouter(cfg.BackendURL, cfg.WebURL)
	if err != nil {
		log.Fatalf("Ошибка настройки прокси: %v", err)
	}

	log.Printf("Проксирование /api/* на %s, остальное на %s", cfg.BackendURL, cfg.WebURL)
	log.Printf("Starting HTTP server on port %s", cfg.ProxyPort)
	if err := http.ListenAndServe(":"+cfg.ProxyPort, router); err != nil {
		log.Fatal(err)
	}
}

func newRouter(backendURL, webURL string) (*mux.Router, error) {
	backend, err := proxy.New(backendURL)
	if err != nil {
		return nil, err
	}
	frontend, err := proxy.New(webURL)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.PathPrefix("/api/").Handler(backend)
	r.PathPrefix("/").Handler(frontend)
	return r, nil
}
