package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the terminal UI and blocks until ctx is cancelled or the user
// quits. The screen is owned by the caller.
func Run(ctx context.Context, opts Options) error {
	if opts.Screen == nil {
		return fmt.Errorf("ui requires a screen")
	}
	if opts.Relay == nil {
		return fmt.Errorf("ui requires a relay")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}

	p := tea.NewProgram(New(opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	relayCtx, stop := context.WithCancel(ctx)
	defer stop()
	opts.Relay.Attach(relayCtx, p.Send)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
