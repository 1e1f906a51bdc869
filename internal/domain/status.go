package domain

// NoteStatus is the externally observable lifecycle of a Note. It is
// mutated only by job handlers (and by user-triggered retries, which may
// re-enter TRANSCRIBING or PROCESSING from any state).
type NoteStatus string

const (
	StatusPending      NoteStatus = "PENDING"
	StatusTranscribing NoteStatus = "TRANSCRIBING"
	StatusTranscribed  NoteStatus = "TRANSCRIBED"
	StatusProcessing   NoteStatus = "PROCESSING"
	StatusReady        NoteStatus = "READY"
	StatusError        NoteStatus = "ERROR"
)

var noteTransitions = map[NoteStatus][]NoteStatus{
	StatusPending:      {StatusTranscribing},
	StatusTranscribing: {StatusTranscribed, StatusError},
	StatusTranscribed:  {StatusProcessing},
	StatusProcessing:   {StatusReady, StatusError},
	StatusReady:        {StatusProcessing, StatusReady},
	StatusError:        {},
}

// CanTransition reports whether from -> to is a pipeline transition.
// Re-entry into TRANSCRIBING or PROCESSING is always allowed: it models a
// user-triggered retry or an appended recording.
func CanTransition(from, to NoteStatus) bool {
	if to == StatusTranscribing || to == StatusProcessing {
		return true
	}
	for _, next := range noteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s NoteStatus) Terminal() bool {
	return s == StatusReady || s == StatusError
}
