package reconcile

import (
	"time"

	"github.com/s21platform/chat-sync/internal/conversation"
)

// Outcome describes what ApplySnapshot did with a snapshot.
type Outcome int

const (
	Applied Outcome = iota
	Unchanged
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// maxPendingSnapshots bounds how many snapshots a pushed message may be
// missing from before it is no longer carried.
const maxPendingSnapshots = 3

type pendingPush struct {
	message conversation.Message
	misses  int
}

// Engine holds the single reconciled view of a conversation. It is not safe
// for concurrent use; callers serialize access on one goroutine.
type Engine struct {
	sink     Sink
	messages []conversation.Message
	ids      map[conversation.MessageID]struct{}
	pending  []pendingPush
	rendered bool
}

func New(sink Sink) *Engine {
	return &Engine{
		sink: sink,
		ids:  make(map[conversation.MessageID]struct{}),
	}
}

// ApplySnapshot replaces the view with snapshot. Duplicate ids collapse to
// their first occurrence. Pushed messages the snapshot does not contain yet
// are kept: placed by created_at when timestamps parse, otherwise after the
// snapshot. An empty snapshot never clears a non-empty view.
func (e *Engine) ApplySnapshot(snapshot []conversation.Message) Outcome {
	if len(snapshot) == 0 && len(e.messages) > 0 {
		return Empty
	}

	next := make([]conversation.Message, 0, len(snapshot)+len(e.pending))
	seen := make(map[conversation.MessageID]struct{}, len(snapshot)+len(e.pending))
	for _, msg := range snapshot {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		next = append(next, msg)
	}

	pending := e.pending[:0]
	for _, p := range e.pending {
		if _, ok := seen[p.message.ID]; ok {
			continue
		}
		p.misses++
		if p.misses > maxPendingSnapshots {
			continue
		}
		seen[p.message.ID] = struct{}{}
		next = insertByTime(next, p.message)
		pending = append(pending, p)
	}
	e.pending = pending

	if e.rendered && equal(e.messages, next) {
		return Unchanged
	}

	e.messages = next
	e.ids = seen
	e.rendered = true
	e.sink.Render(e.Messages())

	return Applied
}

// ApplyPush appends message unless its id is already visible. It reports
// whether the message was appended. The next applied snapshot puts it in
// created_at order.
func (e *Engine) ApplyPush(message conversation.Message) bool {
	if message.ID == "" {
		return false
	}
	if _, ok := e.ids[message.ID]; ok {
		return false
	}

	e.ids[message.ID] = struct{}{}
	e.messages = append(e.messages, message)
	e.pending = append(e.pending, pendingPush{message: message})
	e.sink.Append(message)

	return true
}

// Messages returns a copy of the visible conversation.
func (e *Engine) Messages() []conversation.Message {
	out := make([]conversation.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) Len() int {
	return len(e.messages)
}

// insertByTime places msg after the last message not newer than it. Scanning
// stops at a message without a parseable timestamp.
func insertByTime(messages []conversation.Message, msg conversation.Message) []conversation.Message {
	at, ok := parseTime(msg.CreatedAt)
	if !ok {
		return append(messages, msg)
	}

	pos := len(messages)
	for pos > 0 {
		prev, ok := parseTime(messages[pos-1].CreatedAt)
		if !ok || !prev.After(at) {
			break
		}
		pos--
	}

	messages = append(messages, conversation.Message{})
	copy(messages[pos+1:], messages[pos:])
	messages[pos] = msg
	return messages
}

func parseTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	return t, err == nil
}

func equal(a, b []conversation.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
