package cmds

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/socra/pkg/completion"
)

var (
	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// spinner shows that a streaming completion is making progress. It only
// animates on a terminal.
type spinner struct {
	w       io.Writer
	message string
	color   bool

	mu    sync.Mutex
	frame int
}

func newSpinner(w io.Writer, message string, color bool) *spinner {
	s := &spinner{w: w, message: message, color: color}
	if color {
		_, _ = fmt.Fprintf(w, "%s %s", spinnerStyle.Render(spinnerFrames[0]), message)
	} else {
		_, _ = fmt.Fprintln(w, message)
	}
	return s
}

func (s *spinner) spin(completion.ChunkPayload) {
	if !s.color {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = (s.frame + 1) % len(spinnerFrames)
	_, _ = fmt.Fprintf(s.w, "\r%s %s", spinnerStyle.Render(spinnerFrames[s.frame]), s.message)
}

// OnChunk updates the spinner at most every 100ms.
func (s *spinner) OnChunk() completion.ChunkFunc {
	return completion.Throttle(100*time.Millisecond, s.spin)
}

func (s *spinner) Finish(cost completion.Cost) {
	if !s.color {
		return
	}
	_, _ = fmt.Fprintf(s.w, "\r\x1b[2K%s %s ($%.6f)\n", doneStyle.Render("✔"), s.message, cost.Total)
}
