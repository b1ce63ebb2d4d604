package app

import (
	"sync"
	"time"
)

// Message is one turn of a conversation. Messages are immutable once created;
// display order is insertion order.
type Message struct {
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUserMessage(text string) Message {
	return Message{Text: text, IsUser: true, Timestamp: time.Now()}
}

func NewBotMessage(text string) Message {
	return Message{Text: text, IsUser: false, Timestamp: time.Now()}
}

func (m Message) Equal(other Message) bool {
	return m.Text == other.Text &&
		m.IsUser == other.IsUser &&
		m.Timestamp.Equal(other.Timestamp)
}

// messagesEqual compares two ordered message sequences by value,
// including timestamps.
func messagesEqual(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Transcript is the ordered list of messages in the conversation currently
// being composed. It does not enforce the per-session turn cap itself; that
// is the orchestrator's contract (see Orchestrator.Submit).
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// ReplaceAll discards the current contents and seeds the transcript with the
// given messages. Used only by the history loader.
func (t *Transcript) ReplaceAll(msgs []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = make([]Message, len(msgs))
	copy(t.messages, msgs)
}

func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Snapshot returns a copy of the current messages. The copy does not alias
// the live buffer, so archived sessions stay frozen if the transcript keeps
// growing.
func (t *Transcript) Snapshot() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// UserTurns counts user-authored messages.
func (t *Transcript) UserTurns() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, m := range t.messages {
		if m.IsUser {
			n++
		}
	}
	return n
}
