// Package terminal отрисовывает сетку и сообщение представления в терминале.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"wildfire/internal/grid"
)

// Options управляет отрисовкой
type Options struct {
	// Color включает ANSI-цвета; по умолчанию определяется по выводу
	Color bool
	// Width — ширина терминала; 0 — без ограничения
	Width int
}

// DetectOptions определяет цвет и ширину для файла вывода
func DetectOptions(out *os.File) Options {
	opts := Options{}
	if out == nil {
		return opts
	}
	fd := out.Fd()
	opts.Color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
		opts.Width = w
	}
	return opts
}

// shadeRamp — символы от прозрачной клетки к непрозрачной
var shadeRamp = []rune{' ', '░', '▒', '▓', '█'}

// Shade возвращает символ для прозрачности в [0,1]
func Shade(opacity float64) rune {
	if opacity <= 0 {
		return shadeRamp[0]
	}
	if opacity >= 1 {
		return shadeRamp[len(shadeRamp)-1]
	}
	idx := int(opacity * float64(len(shadeRamp)))
	if idx >= len(shadeRamp) {
		idx = len(shadeRamp) - 1
	}
	return shadeRamp[idx]
}

// RenderGrid выводит сетку таблицей go-pretty
func RenderGrid(w io.Writer, cells [][]grid.Cell, shaded bool, opts Options) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.DrawBorder = true
	if opts.Width > 0 {
		tw.SetAllowedRowLength(opts.Width)
	}

	for _, row := range cells {
		tr := make(table.Row, 0, len(row))
		for _, cell := range row {
			tr = append(tr, formatCell(cell, shaded, opts.Color))
		}
		tw.AppendRow(tr)
	}

	if len(cells) > 0 {
		configs := make([]table.ColumnConfig, 0, len(cells[0]))
		for i := range cells[0] {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
		tw.SetColumnConfigs(configs)
	}

	_ = tw.Render()
	return nil
}

func formatCell(cell grid.Cell, shaded, color bool) string {
	label := strconv.Itoa(cell.Label)
	if !shaded {
		return label
	}
	cellText := fmt.Sprintf("%s%c", label, Shade(cell.Opacity))
	if !color {
		return cellText
	}
	return shadeColor(cell.Opacity).Sprint(cellText)
}

func shadeColor(opacity float64) text.Colors {
	switch {
	case opacity >= 0.75:
		return text.Colors{text.FgHiRed, text.Bold}
	case opacity >= 0.5:
		return text.Colors{text.FgRed}
	case opacity >= 0.25:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgHiBlack}
	}
}

// RenderMessage выводит строку с сообщением бэкенда, как на странице
func RenderMessage(w io.Writer, message string) error {
	_, err := fmt.Fprintf(w, "Response from Flask backend: %s\n", message)
	return err
}
