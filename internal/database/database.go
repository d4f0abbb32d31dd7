package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/lib/pq"

	"wildfire/internal/models"
)

// timeLayout фиксированной ширины, чтобы сортировка строк совпадала с сортировкой времени
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Journal — журнал диагностики обращений к шлюзу
type Journal struct {
	db     *sql.DB
	driver string
}

// Open открывает журнал; driver — "sqlite" или "postgres"
func Open(driver, dsn string) (*Journal, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("неподдерживаемый драйвер журнала: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	if driver == "sqlite" {
		// одна запись за раз, иначе "database is locked"
		db.SetMaxOpenConns(1)
	}

	j := &Journal{db: db, driver: driver}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			view_id TEXT NOT NULL DEFAULT '',
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы exchanges: %w", err)
	}

	return j.applyMigrations()
}

// applyMigrations применяет все миграции к базе данных
func (j *Journal) applyMigrations() error {
	exists, err := j.columnExists("exchanges", "duration_ms")
	if err != nil {
		return fmt.Errorf("ошибка проверки существования столбца duration_ms: %w", err)
	}

	if !exists {
		_, err = j.db.Exec(`ALTER TABLE exchanges ADD COLUMN duration_ms INTEGER NOT NULL DEFAULT 0`)
		if err != nil {
			return fmt.Errorf("ошибка добавления столбца duration_ms: %w", err)
		}
	}
	return nil
}

func (j *Journal) columnExists(table, column string) (bool, error) {
	var (
		count int
		err   error
	)
	if j.driver == "postgres" {
		err = j.db.QueryRow(j.rebind("SELECT COUNT(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?"),
			table, column).Scan(&count)
	} else {
		err = j.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name = ?", table), column).Scan(&count)
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Record сохраняет обращение к шлюзу
func (j *Journal) Record(ctx context.Context, ex models.Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, j.rebind(
		"INSERT INTO exchanges (id, view_id, method, path, status, message, error, created_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		ex.ID, ex.ViewID, ex.Method, ex.Path, ex.Status, ex.Message, ex.Error,
		ex.CreatedAt.UTC().Format(timeLayout), ex.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения обращения: %w", err)
	}

	if ex.Failed() {
		log.Printf("ЖУРНАЛ: %s %s view=%s status=%d ошибка=%s", ex.Method, ex.Path, ex.ViewID, ex.Status, ex.Error)
	}
	return nil
}

// Recent возвращает последние limit обращений, новые первыми
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, j.rebind(
		"SELECT id, view_id, method, path, status, message, error, created_at, duration_ms FROM exchanges ORDER BY created_at DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обращений: %w", err)
	}
	defer rows.Close()

	exchanges := []models.Exchange{}
	for rows.Next() {
		var (
			ex         models.Exchange
			createdAt  string
			durationMS int64
		)
		err := rows.Scan(&ex.ID, &ex.ViewID, &ex.Method, &ex.Path, &ex.Status, &ex.Message, &ex.Error, &createdAt, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения данных обращения: %w", err)
		}
		ex.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора времени обращения %s: %w", ex.ID, err)
		}
		ex.Duration = time.Duration(durationMS) * time.Millisecond
		exchanges = append(exchanges, ex)
	}

	return exchanges, rows.Err()
}

// rebind заменяет плейсхолдеры ? на $n для postgres
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
