package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"NewsReconciler/internal/ports"
)

// Reviewer asks questions on the terminal with a bounded wait. A single
// background goroutine owns the input stream; prompts select over its line
// channel, a timer, and the context, so an unanswered prompt resolves to
// its default without blocking shutdown.
type Reviewer struct {
	out   io.Writer
	lines chan string
	stale int
}

var _ ports.Reviewer = (*Reviewer)(nil)

// NewReviewer starts the reader goroutine over in (normally os.Stdin).
func NewReviewer(in io.Reader, out io.Writer) *Reviewer {
	r := &Reviewer{out: out, lines: make(chan string)}
	go r.readLoop(in)
	return r
}

func (r *Reviewer) readLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		r.lines <- strings.TrimSpace(scanner.Text())
	}
	close(r.lines)
}

// Ask prints the prompt and waits for one line of input. The default is
// returned when the timeout elapses, the context ends, or input is closed.
// A line typed for a prompt that already resolved to its default is
// discarded rather than applied to a later question.
func (r *Reviewer) Ask(ctx context.Context, prompt, def string, timeout time.Duration) string {
	fmt.Fprint(r.out, prompt)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case line, ok := <-r.lines:
			if !ok {
				return def
			}
			if r.stale > 0 {
				r.stale--
				continue
			}
			return line
		case <-timer.C:
			fmt.Fprintf(r.out, "\nTimeout reached, defaulting to '%s'\n", def)
			r.stale++
			return def
		case <-ctx.Done():
			r.stale++
			return def
		}
	}
}
