package grid

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidSize    = errors.New("grid: invalid size")
	ErrUnknownVariant = errors.New("grid: unknown variant")
)

// Variant определяет, как раскрашиваются клетки
type Variant int

const (
	Sequential Variant = iota // только нумерация
	Shaded                    // нумерация + случайная прозрачность
)

func (v Variant) String() string {
	switch v {
	case Sequential:
		return "sequential"
	case Shaded:
		return "shaded"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant разбирает имя варианта сетки
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "static":
		return Sequential, nil
	case "shaded":
		return Shaded, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Shader — источник псевдослучайных чисел в [0,1)
type Shader interface {
	Float64() float64
}

// Cell — одна клетка сетки
type Cell struct {
	Row     int
	Col     int
	Label   int
	Opacity float64
}

// Grid — декоративная сетка фиксированного размера
type Grid struct {
	rows    int
	cols    int
	variant Variant
}

// New создает сетку rows x cols
func New(rows, cols int, variant Variant) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	if variant != Sequential && variant != Shaded {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(variant))
	}
	return &Grid{rows: rows, cols: cols, variant: variant}, nil
}

func (g *Grid) Dimensions() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) Len() int {
	return g.rows * g.cols
}

func (g *Grid) Variant() Variant {
	return g.variant
}

// Cells строит клетки в построчном порядке, номера 1..rows*cols.
// Для Shaded каждая клетка получает новую прозрачность из shader при каждом вызове.
// Для Sequential shader может быть nil.
func (g *Grid) Cells(shader Shader) [][]Cell {
	cells := make([][]Cell, g.rows)
	for r := 0; r < g.rows; r++ {
		row := make([]Cell, g.cols)
		for c := 0; c < g.cols; c++ {
			opacity := 1.0
			if g.variant == Shaded && shader != nil {
				opacity = roundOpacity(shader.Float64())
			}
			row[c] = Cell{
				Row:     r,
				Col:     c,
				Label:   c + r*g.cols + 1,
				Opacity: opacity,
			}
		}
		cells[r] = row
	}
	return cells
}

// roundOpacity округляет до сотых и зажимает в [0,1]
func roundOpacity(f float64) float64 {
	f = math.Round(f*100) / 100
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Source — генератор, инициализируемый один раз и безопасный для конкурентного использования
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource создает генератор; seed == 0 означает зерно от текущего времени
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
