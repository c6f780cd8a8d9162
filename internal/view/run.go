package view

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/clientctl/clientctl/internal/iostreams"
	"github.com/clientctl/clientctl/internal/transport"
	"golang.org/x/term"
)

// ErrNotInteractive is returned by Run when the streams are not a terminal.
var ErrNotInteractive = errors.New("the records view requires an interactive terminal")

// Run starts the records view on streams and blocks until the user quits.
func Run(ctx context.Context, streams *iostreams.IOStreams, adapter transport.Adapter, opts ...Option) error {
	if !streams.IsInteractive() {
		return ErrNotInteractive
	}

	if f, ok := streams.Out.(interface{ Fd() uintptr }); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			opts = append(opts, WithSize(w, h))
		}
	}

	model := New(ctx, adapter, opts...)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
