package app

// SessionManager decides when the live transcript is frozen into the
// archive and clears it for the next conversation.
type SessionManager struct {
	transcript *Transcript
	archive    *Archive
	log        *Logger
}

func NewSessionManager(transcript *Transcript, archive *Archive, log *Logger) *SessionManager {
	return &SessionManager{transcript: transcript, archive: archive, log: log}
}

// StartNewSession archives the current transcript (skipping duplicates of
// already-archived conversations) and clears it. An empty transcript skips
// archival entirely. Returns the archived session and whether a new archive
// entry was created.
//
// Postcondition either way: the transcript is empty and the archive holds at
// most one copy of any message sequence.
func (m *SessionManager) StartNewSession() (Session, bool) {
	if m.transcript.IsEmpty() {
		return Session{}, false
	}

	snapshot := m.transcript.Snapshot()
	sess, added := m.archive.Add(snapshot)
	if added {
		m.log.Info("session archived", map[string]interface{}{
			"id":       sess.ID,
			"messages": len(sess.Messages),
		})
	}
	m.transcript.Clear()
	return sess, added
}
