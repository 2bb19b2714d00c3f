package events

import (
	"fmt"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ProgressPrinterFunc renders run events as spinner lines. Spinner frames
// overwrite the current line, which only makes sense on a terminal, so
// callers usually pass IsTerminal(os.Stdout) for color.
func ProgressPrinterFunc(w io.Writer, color bool) func(msg *message.Message) error {
	frame := 0
	spinning := false
	label := ""

	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	endLine := func() string {
		if spinning {
			spinning = false
			if color {
				return "\r\x1b[2K"
			}
			return "\n"
		}
		return ""
	}

	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJSON(msg.Payload)
		if err != nil {
			return err
		}

		switch ev := e.(type) {
		case *EventDecisionStart:
			label = "Making decision for " + ev.Metadata().NodeName
			frame = 0
			spinning = true
			_, err = fmt.Fprintf(w, "%s %s", style(spinnerStyle, spinnerFrames[frame]), label)

		case *EventPartial:
			if !spinning || !color {
				return nil
			}
			frame = (frame + 1) % len(spinnerFrames)
			_, err = fmt.Fprintf(w, "\r%s %s", style(spinnerStyle, spinnerFrames[frame]), label)

		case *EventDecision:
			_, err = fmt.Fprintf(w, "%s%s %s %s\n",
				endLine(), style(successStyle, "✔"), ev.Thought,
				style(dimStyle, fmt.Sprintf("($%.6f)", ev.Cost.Total)))

		case *EventDecisionError:
			_, err = fmt.Fprintf(w, "%s%s %s\n", endLine(), style(failureStyle, "✗"), ev.ErrorString)

		case *EventLeafStart:
			_, err = fmt.Fprintf(w, "%s→ %s\n", endLine(), ev.Metadata().NodeName)

		case *EventLeafEnd:
			if ev.ErrorString != "" {
				_, err = fmt.Fprintf(w, "%s %s failed: %s\n",
					style(failureStyle, "✗"), ev.Metadata().NodeName, ev.ErrorString)
			}

		case *EventNodeEnter:
		}

		return err
	}
}
