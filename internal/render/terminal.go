package render

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/s21platform/chat-sync/internal/conversation"
)

const (
	DefaultWidth = 80

	// bubbleRatio caps a bubble to this share of the terminal width.
	bubbleRatio = 0.75
	// bubbleChrome is the horizontal space taken by border and padding.
	bubbleChrome = 4

	timestampLayout = "2006-01-02 15:04"
)

// Terminal draws the conversation as bubbles: the local participant on the
// right, the partner on the left.
type Terminal struct {
	out      io.Writer
	output   *termenv.Output
	renderer *lipgloss.Renderer
	meID     string
	width    int

	mine   lipgloss.Style
	theirs lipgloss.Style
	meta   lipgloss.Style
}

func NewTerminal(w io.Writer, meID string, width int, opts ...termenv.OutputOption) *Terminal {
	if width <= 0 {
		width = DefaultWidth
	}

	renderer := lipgloss.NewRenderer(w, opts...)
	bubble := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return &Terminal{
		out:      w,
		output:   termenv.NewOutput(w, opts...),
		renderer: renderer,
		meID:     meID,
		width:    width,
		mine:     bubble.BorderForeground(lipgloss.Color("63")),
		theirs:   bubble.BorderForeground(lipgloss.Color("245")),
		meta:     renderer.NewStyle().Faint(true),
	}
}

// Render clears the screen and draws the whole conversation. The latest
// message ends up last, directly above the prompt.
func (t *Terminal) Render(messages []conversation.Message) {
	t.output.ClearScreen()
	for _, msg := range messages {
		t.write(msg)
	}
}

// Append draws one message below what is already on screen.
func (t *Terminal) Append(message conversation.Message) {
	t.write(message)
}

func (t *Terminal) write(msg conversation.Message) {
	_, _ = fmt.Fprintln(t.out, t.Bubble(msg))
}

// Bubble renders a single message aligned to the terminal width.
func (t *Terminal) Bubble(msg conversation.Message) string {
	style, pos := t.theirs, lipgloss.Left
	if msg.SenderID == t.meID {
		style, pos = t.mine, lipgloss.Right
	}

	body := msg.Content
	if ts := formatTimestamp(msg.CreatedAt); ts != "" {
		body += "\n" + t.meta.Render(ts)
	}

	maxInner := int(float64(t.width)*bubbleRatio) - bubbleChrome
	if maxInner < 1 {
		maxInner = 1
	}
	inner := lipgloss.Width(body)
	if inner > maxInner {
		inner = maxInner
	}
	if inner < 1 {
		inner = 1
	}

	// Width includes the horizontal padding.
	bubble := style.Width(inner + 2).Render(body)

	return lipgloss.PlaceHorizontal(t.width, pos, bubble)
}

// formatTimestamp shows RFC 3339 timestamps in local time and passes any
// other value through unchanged.
func formatTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return parsed.Local().Format(timestampLayout)
}
