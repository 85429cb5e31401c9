package helpflow

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrHelpUnavailable indicates help cannot be requested for the problem in
// its current state (no submission yet, accepted, or already in flight).
var ErrHelpUnavailable = errors.New("help unavailable for problem")

// User-facing terminal notices.
const (
	NoticeResubmit = "We couldn't finish analysing your code. Please resubmit and request help again."
	NoticeNoReport = "No analysis report is available for this submission."
)

// Controller coordinates one student's debugging-help session: which problem
// is in view, what each problem's submission snapshot looks like, which
// transcripts are visible, and which panels are unlocked. It owns its state
// exclusively; a second controller for the same student is an independent
// copy seeded from the server.
type Controller struct {
	studentID string
	tracker   *Tracker
	poller    *Poller
	logger    zerolog.Logger

	mu          sync.Mutex
	window      Window
	selected    string
	transcripts map[string][]Message
	notices     map[string]string
	practice    map[string]PracticeSnapshot
}

// NewController wires a tracker and poller for one student against the given
// status source.
func NewController(studentID string, source StatusSource, cfg PollerConfig) *Controller {
	logger := cfg.Logger.With().Str("component", "helpflow_controller").Str("student_id", studentID).Logger()

	return &Controller{
		studentID:   studentID,
		tracker:     NewTracker(),
		poller:      NewPoller(studentID, source, cfg),
		logger:      logger,
		window:      WindowNotStarted,
		transcripts: make(map[string][]Message),
		notices:     make(map[string]string),
		practice:    make(map[string]PracticeSnapshot),
	}
}

// Run consumes poll outcomes until ctx is cancelled. It must be running for
// transcripts and notices to update.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-c.poller.Outcomes():
			c.apply(out)
		}
	}
}

// SetWindow updates the availability window supplied by the server.
func (c *Controller) SetWindow(window Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
}

// SelectProblem switches the problem in view. Polling for other problems
// carries on in the background.
func (c *Controller) SelectProblem(problemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = problemID
}

// SelectedProblem returns the problem currently in view, empty if none.
func (c *Controller) SelectedProblem() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SeedSession installs server state for a problem, typically fetched when it
// is selected in the sidebar.
func (c *Controller) SeedSession(problemID string, submissionNum int, accepted bool, practice PracticeSnapshot) {
	c.tracker.Seed(problemID, submissionNum, accepted)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.practice[problemID] = practice
}

// HandleSubmission folds a judged submission into the session. A bundled
// practice question means the server already generated the set; otherwise an
// accepted verdict starts background generation.
func (c *Controller) HandleSubmission(problemID, verdict string, submissionNum int, practiceBundled bool) Session {
	session := c.tracker.RecordSubmission(problemID, verdict, submissionNum)

	c.mu.Lock()
	defer c.mu.Unlock()

	if session.IsAccepted {
		if practiceBundled {
			c.practice[problemID] = PracticeSnapshot{Exists: true}
		} else {
			c.practice[problemID] = PracticeSnapshot{Generating: true}
		}
	}

	return session
}

// SetPractice replaces the practice snapshot for a problem, typically from a
// background refresh of the server state.
func (c *Controller) SetPractice(problemID string, snapshot PracticeSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.practice[problemID] = snapshot
}

// RequestHelp starts (or supersedes) the analysis poll for the problem's
// latest submission. The help affordance is disabled until the poll reaches
// a terminal failure.
func (c *Controller) RequestHelp(ctx context.Context, problemID string) error {
	session := c.tracker.Session(problemID)
	if !session.CanRequestHelp {
		return ErrHelpUnavailable
	}

	c.tracker.DisableHelp(problemID)

	c.mu.Lock()
	delete(c.notices, problemID)
	c.mu.Unlock()

	c.poller.StartPolling(ctx, problemID, session.LatestSubmissionNum)
	return nil
}

// Session returns the tracked snapshot for a problem.
func (c *Controller) Session(problemID string) Session {
	return c.tracker.Session(problemID)
}

// IsLoading reports whether an analysis poll is still in flight for the
// problem, which drives the chat panel's loading indicator.
func (c *Controller) IsLoading(problemID string) bool {
	return c.poller.IsPolling(problemID)
}

// Transcript returns the visible transcript for a problem, nil if none has
// been rendered yet.
func (c *Controller) Transcript(problemID string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	transcript := c.transcripts[problemID]
	if transcript == nil {
		return nil
	}
	out := make([]Message, len(transcript))
	copy(out, transcript)
	return out
}

// Notice returns the terminal message shown for a problem, empty if none.
func (c *Controller) Notice(problemID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices[problemID]
}

// Gates derives panel availability for the problem in view.
func (c *Controller) Gates() Gates {
	c.mu.Lock()
	selected := c.selected
	window := c.window
	practice := c.practice[selected]
	c.mu.Unlock()

	return EvaluateGates(GateInput{
		ProblemSelected: selected != "",
		Window:          window,
		Session:         c.tracker.Session(selected),
		Practice:        practice,
	})
}

func (c *Controller) apply(out Outcome) {
	c.mu.Lock()
	viewing := c.selected == out.ProblemID
	c.mu.Unlock()

	switch out.Status {
	case StatusResolved:
		if !viewing {
			// Discarded on purpose; the transcript is refetched from the
			// server on the next visit to this problem.
			c.logger.Debug().Str("problem_id", out.ProblemID).Msg("dropping resolved transcript for background problem")
			return
		}
		c.mu.Lock()
		c.transcripts[out.ProblemID] = out.Transcript
		delete(c.notices, out.ProblemID)
		c.mu.Unlock()

	case StatusNotFound:
		c.tracker.EnableHelp(out.ProblemID)
		if viewing {
			c.mu.Lock()
			c.notices[out.ProblemID] = NoticeNoReport
			c.mu.Unlock()
		}

	case StatusError, StatusTimeout:
		c.tracker.EnableHelp(out.ProblemID)
		c.logger.Warn().
			Str("problem_id", out.ProblemID).
			Int("retries", out.Retries).
			Err(out.Err).
			Msg("help poll ended without a report")
		if viewing {
			c.mu.Lock()
			c.notices[out.ProblemID] = NoticeResubmit
			c.mu.Unlock()
		}
	}
}
