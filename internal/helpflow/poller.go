package helpflow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default polling knobs. The fixed interval and hard retry cap mirror the
// backend's expected analysis latency of roughly two minutes; there is no
// backoff or jitter.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxRetries   = 60
)

// Status classifies one answer from the help backend.
type Status string

// Status values.
const (
	StatusResolved Status = "resolved"
	StatusPending  Status = "pending"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
	StatusTimeout  Status = "timeout"
)

// Message is a single transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResult is the backend's answer to one status query.
type StatusResult struct {
	Status     Status
	Transcript []Message
}

// StatusSource queries the analysis job state for one submission snapshot.
type StatusSource interface {
	Status(ctx context.Context, studentID, problemID string, submissionNum int) (StatusResult, error)
}

// Outcome is the terminal result of one poll chain.
type Outcome struct {
	ProblemID     string
	SubmissionNum int
	Status        Status
	Transcript    []Message
	Retries       int
	Err           error
}

// PollerConfig customises poller behaviour. Zero values fall back to the
// defaults above.
type PollerConfig struct {
	Interval   time.Duration
	MaxRetries int
	Logger     zerolog.Logger
}

// Poller drives request/poll/resolve cycles against an asynchronous analysis
// backend. Each problem owns at most one live poll chain; starting a new
// chain for a problem supersedes the old one, which notices its stale
// generation stamp and exits without reporting anything. Chains for
// different problems run independently.
type Poller struct {
	source     StatusSource
	studentID  string
	interval   time.Duration
	maxRetries int
	logger     zerolog.Logger
	outcomes   chan Outcome

	mu     sync.Mutex
	active map[string]uint64
	gen    uint64

	wg sync.WaitGroup
}

// NewPoller builds a poller for one student's help sessions.
func NewPoller(studentID string, source StatusSource, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &Poller{
		source:     source,
		studentID:  studentID,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger.With().Str("component", "help_poller").Logger(),
		outcomes:   make(chan Outcome, 16),
		active:     make(map[string]uint64),
	}
}

// Outcomes delivers the terminal result of every non-superseded poll chain.
func (p *Poller) Outcomes() <-chan Outcome {
	return p.outcomes
}

// IsPolling reports whether a poll chain is live for problemID.
func (p *Poller) IsPolling(problemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[problemID]
	return ok
}

// StartPolling begins a poll chain for the given submission snapshot,
// superseding any chain already running for the same problem.
func (p *Poller) StartPolling(ctx context.Context, problemID string, submissionNum int) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.active[problemID] = gen
	p.mu.Unlock()

	p.logger.Debug().
		Str("problem_id", problemID).
		Int("submission_num", submissionNum).
		Uint64("generation", gen).
		Msg("poll chain started")

	p.wg.Add(1)
	go p.run(ctx, gen, problemID, submissionNum)
}

// Wait blocks until every live poll goroutine has returned. Intended for
// shutdown after cancelling the context passed to StartPolling.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, gen uint64, problemID string, submissionNum int) {
	defer p.wg.Done()

	retries := 0
	for {
		if !p.current(problemID, gen) {
			return
		}

		result, err := p.source.Status(ctx, p.studentID, problemID, submissionNum)

		// The response may have raced a superseding StartPolling call; a
		// stale chain must not mutate anything.
		if !p.current(problemID, gen) {
			return
		}

		switch {
		case err != nil:
			p.finish(ctx, gen, problemID, Outcome{
				ProblemID:     problemID,
				SubmissionNum: submissionNum,
				Status:        StatusError,
				Retries:       retries,
				Err:           err,
			})
			return
		case result.Status == StatusResolved:
			p.finish(ctx, gen, problemID, Outcome{
				ProblemID:     problemID,
				SubmissionNum: submissionNum,
				Status:        StatusResolved,
				Transcript:    result.Transcript,
				Retries:       retries,
			})
			return
		case result.Status == StatusNotFound:
			p.finish(ctx, gen, problemID, Outcome{
				ProblemID:     problemID,
				SubmissionNum: submissionNum,
				Status:        StatusNotFound,
				Retries:       retries,
			})
			return
		}

		retries++
		if retries > p.maxRetries {
			p.finish(ctx, gen, problemID, Outcome{
				ProblemID:     problemID,
				SubmissionNum: submissionNum,
				Status:        StatusTimeout,
				Retries:       retries,
			})
			return
		}

		select {
		case <-ctx.Done():
			p.release(problemID, gen)
			return
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) current(problemID string, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active[problemID] == gen
}

func (p *Poller) release(problemID string, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active[problemID] == gen {
		delete(p.active, problemID)
	}
}

func (p *Poller) finish(ctx context.Context, gen uint64, problemID string, out Outcome) {
	p.mu.Lock()
	if p.active[problemID] != gen {
		p.mu.Unlock()
		return
	}
	delete(p.active, problemID)
	p.mu.Unlock()

	select {
	case p.outcomes <- out:
	case <-ctx.Done():
	}
}
