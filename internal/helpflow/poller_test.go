package helpflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	mu       sync.Mutex
	pendings int
	result   StatusResult
	err      error
	calls    int
}

func (s *scriptedSource) Status(ctx context.Context, studentID, problemID string, submissionNum int) (StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.pendings {
		return StatusResult{Status: StatusPending}, nil
	}
	if s.err != nil {
		return StatusResult{}, s.err
	}
	return s.result, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// gatedSource blocks each status query until the test releases the gate for
// the queried submission number.
type gatedSource struct {
	mu    sync.Mutex
	gates map[int]chan StatusResult
}

func newGatedSource() *gatedSource {
	return &gatedSource{gates: make(map[int]chan StatusResult)}
}

func (g *gatedSource) gate(submissionNum int) chan StatusResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate, ok := g.gates[submissionNum]
	if !ok {
		gate = make(chan StatusResult, 1)
		g.gates[submissionNum] = gate
	}
	return gate
}

func (g *gatedSource) release(submissionNum int, result StatusResult) {
	g.gate(submissionNum) <- result
}

func (g *gatedSource) Status(ctx context.Context, studentID, problemID string, submissionNum int) (StatusResult, error) {
	select {
	case result := <-g.gate(submissionNum):
		return result, nil
	case <-ctx.Done():
		return StatusResult{}, ctx.Err()
	}
}

func fastPoller(t *testing.T, source StatusSource) *Poller {
	t.Helper()
	return NewPoller("s1", source, PollerConfig{Interval: time.Millisecond, Logger: zerolog.Nop()})
}

func waitOutcome(t *testing.T, p *Poller) Outcome {
	t.Helper()
	select {
	case out := <-p.Outcomes():
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poll outcome")
		return Outcome{}
	}
}

func requireNoOutcome(t *testing.T, p *Poller, within time.Duration) {
	t.Helper()
	select {
	case out := <-p.Outcomes():
		t.Fatalf("unexpected outcome: %+v", out)
	case <-time.After(within):
	}
}

func TestPollerResolvesAfterPending(t *testing.T) {
	transcript := []Message{{Role: "agent", Content: "check your loop bounds"}}
	source := &scriptedSource{pendings: 3, result: StatusResult{Status: StatusResolved, Transcript: transcript}}
	poller := fastPoller(t, source)

	poller.StartPolling(context.Background(), "p1", 2)

	out := waitOutcome(t, poller)
	require.Equal(t, StatusResolved, out.Status)
	require.Equal(t, "p1", out.ProblemID)
	require.Equal(t, 2, out.SubmissionNum)
	require.Equal(t, transcript, out.Transcript)
	require.Equal(t, 3, out.Retries, "retry count increments once per pending response")
	require.Equal(t, 4, source.callCount(), "next query only issued after the prior response")
	require.False(t, poller.IsPolling("p1"))
}

func TestPollerStopsAtRetryCapWithTimeout(t *testing.T) {
	source := &scriptedSource{pendings: 1 << 20}
	poller := fastPoller(t, source)

	poller.StartPolling(context.Background(), "p1", 1)

	out := waitOutcome(t, poller)
	require.Equal(t, StatusTimeout, out.Status)
	require.Equal(t, DefaultMaxRetries+1, out.Retries, "polling stops at exactly retry 61")
	require.Equal(t, DefaultMaxRetries+1, source.callCount())
	require.False(t, poller.IsPolling("p1"))
}

func TestPollerSurfacesTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	poller := fastPoller(t, &scriptedSource{err: boom})

	poller.StartPolling(context.Background(), "p1", 1)

	out := waitOutcome(t, poller)
	require.Equal(t, StatusError, out.Status)
	require.ErrorIs(t, out.Err, boom)
	require.False(t, poller.IsPolling("p1"))
}

func TestPollerReportsNotFound(t *testing.T) {
	poller := fastPoller(t, &scriptedSource{result: StatusResult{Status: StatusNotFound}})

	poller.StartPolling(context.Background(), "p1", 1)

	out := waitOutcome(t, poller)
	require.Equal(t, StatusNotFound, out.Status)
}

func TestPollerSupersedingSilencesOldChain(t *testing.T) {
	source := newGatedSource()
	poller := fastPoller(t, source)
	ctx := context.Background()

	poller.StartPolling(ctx, "p1", 1)
	poller.StartPolling(ctx, "p1", 2)

	source.release(2, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "v2"}}})

	out := waitOutcome(t, poller)
	require.Equal(t, 2, out.SubmissionNum, "only the most recent chain may report")
	require.False(t, poller.IsPolling("p1"))

	// The superseded chain resolves late and must stay silent.
	source.release(1, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "v1"}}})
	requireNoOutcome(t, poller, 100*time.Millisecond)
}

func TestPollerProblemsPollIndependently(t *testing.T) {
	source := newGatedSource()
	poller := fastPoller(t, source)
	ctx := context.Background()

	poller.StartPolling(ctx, "a", 1)
	poller.StartPolling(ctx, "b", 2)

	source.release(2, StatusResult{Status: StatusResolved})

	out := waitOutcome(t, poller)
	require.Equal(t, "b", out.ProblemID)
	require.True(t, poller.IsPolling("a"), "polling for a must survive b resolving")
	require.False(t, poller.IsPolling("b"))

	source.release(1, StatusResult{Status: StatusResolved})
	out = waitOutcome(t, poller)
	require.Equal(t, "a", out.ProblemID)
}

func TestPollerContextCancellationExitsQuietly(t *testing.T) {
	source := &scriptedSource{pendings: 1 << 20}
	poller := fastPoller(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	poller.StartPolling(ctx, "p1", 1)
	time.Sleep(5 * time.Millisecond)
	cancel()

	poller.Wait()
	requireNoOutcome(t, poller, 50*time.Millisecond)
	require.False(t, poller.IsPolling("p1"))
}
