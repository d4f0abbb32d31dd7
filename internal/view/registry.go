package view

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Factory создает представление с заданным идентификатором
type Factory func(id string) *View

// Registry хранит представления открытых страниц, по одному на сессию браузера
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry(factory Factory, ttl time.Duration) *Registry {
	return &Registry{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		views:   make(map[string]*View),
	}
}

// Open возвращает представление по id или создает новое.
// Второе значение равно true, если представление было создано.
func (r *Registry) Open(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[id]; ok && id != "" {
		v.Touch(r.now())
		return v, false
	}

	v := r.factory(uuid.NewString())
	v.Touch(r.now())
	r.views[v.ID()] = v
	return v, true
}

// Get возвращает существующее представление
func (r *Registry) Get(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[id]
	if ok {
		v.Touch(r.now())
	}
	return v, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep размонтирует представления, простаивающие дольше ttl
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, v := range r.views {
		if v.idleSince(now) > r.ttl {
			v.Unmount()
			delete(r.views, id)
			removed++
		}
	}
	return removed
}

// Run периодически вызывает Sweep до отмены контекста
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				log.Printf("Размонтировано неактивных представлений: %d", n)
			}
		}
	}
}
