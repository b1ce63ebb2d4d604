package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// archiveKey is the fixed name the serialized archive is stored under.
const archiveKey = "chatSessions"

// Session is a frozen snapshot of a transcript at the moment of archival.
// Two sessions are the same conversation iff their message sequences are
// structurally equal, including timestamps; ID and ArchivedAt are listing
// metadata and do not participate in that comparison.
type Session struct {
	ID         string    `json:"id"`
	ArchivedAt time.Time `json:"archived_at"`
	Messages   []Message `json:"messages"`
}

func (s Session) Equal(other Session) bool {
	return messagesEqual(s.Messages, other.Messages)
}

// Preview returns the first user message, truncated for listing.
func (s Session) Preview(width int) string {
	for _, m := range s.Messages {
		if !m.IsUser {
			continue
		}
		if width > 0 && len(m.Text) > width {
			return m.Text[:width] + "…"
		}
		return m.Text
	}
	return "(no user messages)"
}

// SessionMeta is lightweight listing data for one archived session.
type SessionMeta struct {
	ID           string
	ArchivedAt   time.Time
	MessageCount int
	Preview      string
}

// Archive is the durable collection of completed transcripts. The in-memory
// list and the file under ArchivePath are kept in sync on every mutation:
// each write replaces the whole serialized value.
type Archive struct {
	mu       sync.Mutex
	path     string
	log      *Logger
	sessions []Session
}

// NewArchive loads the archive file at path. A missing file starts an empty
// archive; a corrupt file is logged and also starts empty, so a bad disk
// state never takes the client down.
func NewArchive(path string, log *Logger) *Archive {
	a := &Archive{path: path, log: log}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("archive read failed", map[string]interface{}{"path": path, "error": err.Error()})
		}
		return a
	}
	var stored map[string][]Session
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn("archive decode failed, starting empty", map[string]interface{}{"path": path, "error": err.Error()})
		return a
	}
	a.sessions = stored[archiveKey]
	return a
}

// Add archives the given message sequence unless a structurally equal
// session is already present. Returns the stored session and whether a new
// entry was appended.
func (a *Archive) Add(msgs []Message) (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.sessions {
		if messagesEqual(existing.Messages, msgs) {
			return existing, false
		}
	}

	frozen := make([]Message, len(msgs))
	copy(frozen, msgs)
	sess := Session{
		ID:         uuid.NewString(),
		ArchivedAt: time.Now(),
		Messages:   frozen,
	}
	a.sessions = append(a.sessions, sess)
	a.persistLocked()
	return sess, true
}

// Delete removes an archived session by ID.
func (a *Archive) Delete(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range a.sessions {
		if s.ID == id {
			a.sessions = append(a.sessions[:i], a.sessions[i+1:]...)
			a.persistLocked()
			return true
		}
	}
	return false
}

// Replace resets the archive contents wholesale.
func (a *Archive) Replace(sessions []Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = make([]Session, len(sessions))
	copy(a.sessions, sessions)
	a.persistLocked()
}

func (a *Archive) Sessions() []Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Session, len(a.sessions))
	copy(out, a.sessions)
	return out
}

func (a *Archive) List() []SessionMeta {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]SessionMeta, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, SessionMeta{
			ID:           s.ID,
			ArchivedAt:   s.ArchivedAt,
			MessageCount: len(s.Messages),
			Preview:      s.Preview(60),
		})
	}
	return out
}

func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// persistLocked rewrites the whole archive file. Write failures are logged
// and swallowed: the in-memory archive stays authoritative for this run.
func (a *Archive) persistLocked() {
	if a.path == "" {
		return
	}
	data, err := json.MarshalIndent(map[string][]Session{archiveKey: a.sessions}, "", "  ")
	if err != nil {
		a.log.Error("archive encode failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		a.log.Error("archive dir create failed", map[string]interface{}{"path": a.path, "error": err.Error()})
		return
	}
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		a.log.Error("archive write failed", map[string]interface{}{"path": a.path, "error": err.Error()})
	}
}
