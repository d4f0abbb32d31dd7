// Package main provides gridctl, a terminal front-end for the evacuation view.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"wildfire/internal/gateway"
	"wildfire/internal/grid"
	"wildfire/internal/terminal"
	"wildfire/internal/view"
)

var version = "dev"

const defaultBackend = "http://127.0.0.1:5000"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gridctl: %v\n", err)
		os.Exit(1)
	}
}

// gridFlags — общие флаги отрисовки сетки
type gridFlags struct {
	variant string
	rows    int
	cols    int
	seed    int64
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.variant, "variant", "shaded", "Grid variant: 'sequential' or 'shaded'")
	cmd.Flags().IntVar(&f.rows, "rows", 20, "Number of grid rows")
	cmd.Flags().IntVar(&f.cols, "cols", 20, "Number of grid columns")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Shading seed (0 = seed from clock)")
}

func (f *gridFlags) build() (*grid.Grid, error) {
	variant, err := grid.ParseVariant(f.variant)
	if err != nil {
		return nil, err
	}
	return grid.New(f.rows, f.cols, variant)
}

// backendURL возвращает адрес шлюза из флага, окружения или значение по умолчанию
func backendURL(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("BACKEND_URL"); env != "" {
		return env
	}
	return defaultBackend
}

func newRootCmd(out *os.File) *cobra.Command {
	var backend string

	root := &cobra.Command{
		Use:           "gridctl",
		Short:         "Render the evacuation grid and talk to the backend gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if out != nil {
		root.SetOut(out)
	}
	root.PersistentFlags().StringVar(&backend, "backend", "",
		"Backend gateway URL (env: BACKEND_URL, default: "+defaultBackend+")")

	newView := func(cmd *cobra.Command, fetchOnMount bool) *view.View {
		gw := gateway.New(backendURL(backend))
		logger := log.New(cmd.ErrOrStderr(), "gridctl: ", log.LstdFlags)
		return view.New("terminal", gw, view.WithFetchOnMount(fetchOnMount), view.WithLogger(logger))
	}

	root.AddCommand(newGridCmd(out))
	root.AddCommand(newHelloCmd(newView))
	root.AddCommand(newPostCmd(newView))
	root.AddCommand(newPageCmd(out, newView))
	return root
}

type viewFactory func(cmd *cobra.Command, fetchOnMount bool) *view.View

func newGridCmd(out *os.File) *cobra.Command {
	var (
		flags   gridFlags
		renders int
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Render the decorative grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := flags.build()
			if err != nil {
				return err
			}
			src := grid.NewSource(flags.seed)
			opts := terminal.DetectOptions(out)
			for i := 0; i < renders; i++ {
				if err := terminal.RenderGrid(cmd.OutOrStdout(), g.Cells(src), g.Variant() == grid.Shaded, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&renders, "renders", 1, "How many times to render (shading is recomputed each time)")
	return cmd
}

func newHelloCmd(newView viewFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Mount the view: GET /api/hello and print the message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd, true)
			v.Mount(context.Background())
			v.Wait()
			return terminal.RenderMessage(cmd.OutOrStdout(), v.Message())
		},
	}
}

func newPostCmd(newView viewFactory) *cobra.Command {
	var clicks int

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Press Update: POST the fixed 3x3 grid to /api/post-data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clicks < 1 {
				return fmt.Errorf("--clicks must be at least 1")
			}
			v := newView(cmd, false)
			for i := 0; i < clicks; i++ {
				v.Click(context.Background())
			}
			v.Wait()
			return terminal.RenderMessage(cmd.OutOrStdout(), v.Message())
		},
	}
	cmd.Flags().IntVar(&clicks, "clicks", 1, "Number of button presses (one request each)")
	return cmd
}

func newPageCmd(out *os.File, newView viewFactory) *cobra.Command {
	var (
		flags        gridFlags
		fetchOnMount bool
		update       bool
	)

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Render the whole page: title, grid and backend message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := flags.build()
			if err != nil {
				return err
			}
			v := newView(cmd, fetchOnMount)
			v.Mount(context.Background())
			if update {
				v.Click(context.Background())
			}
			v.Wait()

			w := cmd.OutOrStdout()
			writePageHeader(w)
			opts := terminal.DetectOptions(out)
			if err := terminal.RenderGrid(w, g.Cells(grid.NewSource(flags.seed)), g.Variant() == grid.Shaded, opts); err != nil {
				return err
			}
			return terminal.RenderMessage(w, v.Message())
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&fetchOnMount, "fetch-on-mount", false, "Issue GET /api/hello when the page mounts")
	cmd.Flags().BoolVar(&update, "update", false, "Press Update once after mounting")
	return cmd
}

func writePageHeader(w io.Writer) {
	fmt.Fprintln(w, "Wildfire Evacuation")
	fmt.Fprintln(w, "Simulating wildfires with reinforcement learning!")
}
