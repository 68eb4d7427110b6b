// Package editsession tracks the single task being edited inline and its draft text.
package editsession

// Session is an active edit of one task.
type Session struct {
	TargetID string
	Draft    string
}

// Tracker is a two-state machine: Idle, or Editing(TargetID, Draft).
// At most one session is active; starting a new one replaces the old one.
type Tracker struct {
	session *Session
}

// Start begins editing id with draft seeded from text.
func (t *Tracker) Start(id, text string) {
	t.session = &Session{TargetID: id, Draft: text}
}

// SetDraft replaces the draft text of the active session.
// Ignored when idle.
func (t *Tracker) SetDraft(text string) {
	if t.session == nil {
		return
	}
	t.session.Draft = text
}

// End returns to Idle, discarding any draft.
func (t *Tracker) End() {
	t.session = nil
}

// EndIf ends the session only if it still targets id.
// Returns true if a session was ended.
func (t *Tracker) EndIf(id string) bool {
	if t.session == nil || t.session.TargetID != id {
		return false
	}
	t.session = nil
	return true
}

// Active returns a copy of the current session.
func (t *Tracker) Active() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Editing reports whether id is the task being edited.
func (t *Tracker) Editing(id string) bool {
	return t.session != nil && t.session.TargetID == id
}
