package main

import (
	"log"

	"github.com/valyala/fasthttp"

	"wildfire/internal/config"
	"wildfire/internal/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	log.Printf("Заглушка шлюза запущена на порту %s", cfg.StubPort)
	if err := fasthttp.ListenAndServe(":"+cfg.StubPort, stub.Handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
