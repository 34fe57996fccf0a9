package analysis

import (
	"context"
	"errors"
)

// Result is the settled value of an analysis future. Text is always
// displayable: on failure it holds an explanatory message.
type Result struct {
	TicketID string
	Text     string
	Err      error
}

// Start runs the analysis in its own goroutine and returns a channel that
// receives exactly one Result and is then closed.
func Start(ctx context.Context, analyzer Analyzer, brief Brief) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		text, err := analyzer.Analyze(ctx, brief)
		out <- Result{TicketID: brief.TicketID, Text: displayText(text, err), Err: err}
	}()
	return out
}

func displayText(text string, err error) string {
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrNotConfigured):
		return MsgNotConfigured
	case errors.Is(err, ErrEmptyResponse):
		return MsgEmpty
	default:
		return MsgUnavailable
	}
}
