package proxy

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// New создает обратный прокси на target с сохранением пути и параметров запроса
func New(target string) (http.Handler, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе URL бэкенда: %w", err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("URL бэкенда должен содержать схему и хост: %q", target)
	}

	proxy := httputil.NewSingleHostReverseProxy(targetURL)

	// Сохраняем исходный обработчик директора
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		path, rawQuery := req.URL.Path, req.URL.RawQuery
		originalDirector(req)
		// Путь не склеивается с путем target: /api/* уходит как есть
		req.URL.Path = path
		req.URL.RawPath = ""
		req.URL.RawQuery = rawQuery
		// Обновляем заголовок Host для соответствия целевому серверу
		req.Host = targetURL.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Ошибка проксирования %s %s на %s: %v", r.Method, r.URL.Path, targetURL.Host, err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "Backend unavailable"})
	}

	return proxy, nil
}
