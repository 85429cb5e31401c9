package helpflow

import "sync"

// Verdict values returned by the judge for a code submission.
const (
	VerdictAccepted     = "Accepted"
	VerdictWrongAnswer  = "Wrong Answer"
	VerdictTimeLimit    = "Time Limit Exceeded"
	VerdictRuntimeError = "Runtime Error"
)

// Session is the submission snapshot tracked for one problem.
type Session struct {
	ProblemID           string `json:"problem_id"`
	LatestSubmissionNum int    `json:"latest_submission_num"`
	HasSubmission       bool   `json:"has_submission"`
	IsAccepted          bool   `json:"is_accepted"`
	CanRequestHelp      bool   `json:"can_request_help"`
}

// Tracker maintains the current submission snapshot per problem. It is a pure
// state reducer over submission events delivered by the network layer.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// RecordSubmission folds a judged submission into the session for problemID
// and returns the updated snapshot. Acceptance disables future help requests
// for the problem; a failed verdict enables them.
func (t *Tracker) RecordSubmission(problemID, verdict string, submissionNum int) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	session := t.session(problemID)
	if submissionNum > session.LatestSubmissionNum {
		session.LatestSubmissionNum = submissionNum
	}
	session.HasSubmission = true
	session.IsAccepted = verdict == VerdictAccepted
	session.CanRequestHelp = !session.IsAccepted

	return *session
}

// Seed installs a snapshot loaded from the server, typically on problem
// selection. It never lowers an already recorded submission number.
func (t *Tracker) Seed(problemID string, submissionNum int, accepted bool) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	session := t.session(problemID)
	if submissionNum > session.LatestSubmissionNum {
		session.LatestSubmissionNum = submissionNum
	}
	if session.LatestSubmissionNum > 0 {
		session.HasSubmission = true
	}
	session.IsAccepted = accepted
	session.CanRequestHelp = session.HasSubmission && !accepted

	return *session
}

// Session returns the snapshot for problemID, zero-valued if none exists.
func (t *Tracker) Session(problemID string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if session, ok := t.sessions[problemID]; ok {
		return *session
	}
	return Session{ProblemID: problemID}
}

// DisableHelp marks help as unavailable for the problem, used while an
// analysis request is in flight.
func (t *Tracker) DisableHelp(problemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session(problemID).CanRequestHelp = false
}

// EnableHelp restores the help affordance after a failed or abandoned
// analysis, unless the submission has been accepted in the meantime.
func (t *Tracker) EnableHelp(problemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session := t.session(problemID)
	if session.HasSubmission && !session.IsAccepted {
		session.CanRequestHelp = true
	}
}

// Reset discards the session for problemID.
func (t *Tracker) Reset(problemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, problemID)
}

func (t *Tracker) session(problemID string) *Session {
	session, ok := t.sessions[problemID]
	if !ok {
		session = &Session{ProblemID: problemID}
		t.sessions[problemID] = session
	}
	return session
}
