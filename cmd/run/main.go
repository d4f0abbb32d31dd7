package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wildfire/internal/config"
)

// service — дочерний процесс, запускаемый через go run
type service struct {
	name string
	pkg  string
	port string
	env  []string
	cmd  *exec.Cmd
}

func isPortFree(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

func waitForPort(port string, timeout time.Duration) bool {
	start := time.Now()
	for {
		if time.Since(start) > timeout {
			return false
		}

		conn, err := net.DialTimeout("tcp", "localhost:"+port, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return true
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func (s *service) start() error {
	s.cmd = exec.Command("go", "run", s.pkg)
	s.cmd.Env = append(os.Environ(), s.env...)
	s.cmd.Stdout = os.Stdout
	s.cmd.Stderr = os.Stderr
	return s.cmd.Start()
}

func (s *service) kill() {
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	services := []*service{
		{
			name: "Заглушка шлюза",
			pkg:  "./cmd/stubgateway",
			port: cfg.StubPort,
			env:  []string{"STUB_HTTP_PORT=" + cfg.StubPort},
		},
		{
			name: "Сервер страницы",
			pkg:  "./cmd/web",
			port: cfg.WebPort,
			env: []string{
				"WEB_HTTP_PORT=" + cfg.WebPort,
				"BACKEND_URL=http://127.0.0.1:" + cfg.StubPort,
			},
		},
	}

	for _, s := range services {
		if !isPortFree(s.port) {
			log.Fatalf("Порт %s уже занят. Завершаем работу.", s.port)
		}
	}

	killAll := func() {
		for _, s := range services {
			s.kill()
		}
	}

	for _, s := range services {
		log.Printf("Запуск: %s...", s.name)
		if err := s.start(); err != nil {
			killAll()
			log.Fatalf("Ошибка запуска %s: %v", s.name, err)
		}
		if !waitForPort(s.port, 30*time.Second) {
			killAll()
			log.Fatalf("Превышено время ожидания запуска: %s", s.name)
		}
		log.Printf("%s готов на порту %s", s.name, s.port)
	}
	log.Printf("Все сервисы запущены, страница: http://localhost:%s/", cfg.WebPort)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var (
		wg   sync.WaitGroup
		once sync.Once
	)
	done := make(chan struct{})
	finish := func() { once.Do(func() { close(done) }) }

	go func() {
		<-sigs
		log.Println("Получен сигнал завершения. Завершаем процессы...")
		killAll()
		finish()
	}()

	wg.Add(len(services))
	for _, s := range services {
		go func(s *service) {
			defer wg.Done()
			if err := s.cmd.Wait(); err != nil {
				fmt.Printf("%s завершился с ошибкой: %v\n", s.name, err)
			} else {
				fmt.Printf("%s успешно завершил работу\n", s.name)
			}
		}(s)
	}

	go func() {
		wg.Wait()
		finish()
	}()

	<-done
	fmt.Println("Все процессы завершены.")
}
