package helpflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, source StatusSource) (*Controller, context.CancelFunc) {
	t.Helper()

	controller := NewController("s1", source, PollerConfig{Interval: time.Millisecond, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	go controller.Run(ctx)
	t.Cleanup(cancel)

	controller.SetWindow(WindowActive)
	return controller, cancel
}

func TestControllerWrongAnswerFlow(t *testing.T) {
	controller, _ := newTestController(t, &scriptedSource{result: StatusResult{Status: StatusResolved}})
	controller.SelectProblem("p1")

	session := controller.HandleSubmission("p1", VerdictWrongAnswer, 3, false)

	require.True(t, session.CanRequestHelp)
	gates := controller.Gates()
	require.True(t, gates.Chat)
	require.False(t, gates.Practice)
	require.Equal(t, PracticeLocked, gates.PracticeState)
}

func TestControllerAcceptanceStartsPracticeGeneration(t *testing.T) {
	controller, _ := newTestController(t, &scriptedSource{})
	controller.SelectProblem("p1")

	controller.HandleSubmission("p1", VerdictAccepted, 2, false)
	require.Equal(t, PracticeGenerating, controller.Gates().PracticeState)

	// A background refresh later finds the generated set.
	controller.SetPractice("p1", PracticeSnapshot{Exists: true})
	require.Equal(t, PracticeTodo, controller.Gates().PracticeState)

	controller.SetPractice("p1", PracticeSnapshot{Exists: true, AllAnsweredCorrect: true})
	require.Equal(t, PracticeDone, controller.Gates().PracticeState)
}

func TestControllerAcceptanceWithBundledPractice(t *testing.T) {
	controller, _ := newTestController(t, &scriptedSource{})
	controller.SelectProblem("p1")

	controller.HandleSubmission("p1", VerdictAccepted, 1, true)

	gates := controller.Gates()
	require.False(t, gates.Editor)
	require.True(t, gates.Practice)
	require.Equal(t, PracticeTodo, gates.PracticeState)
}

func TestControllerRejectsHelpWithoutSubmission(t *testing.T) {
	controller, _ := newTestController(t, &scriptedSource{})

	err := controller.RequestHelp(context.Background(), "p1")
	require.ErrorIs(t, err, ErrHelpUnavailable)
}

func TestControllerRendersTranscriptWhenViewing(t *testing.T) {
	transcript := []Message{{Role: "agent", Content: "off by one on line 4"}}
	controller, _ := newTestController(t, &scriptedSource{pendings: 2, result: StatusResult{Status: StatusResolved, Transcript: transcript}})

	controller.SelectProblem("p1")
	controller.HandleSubmission("p1", VerdictWrongAnswer, 1, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "p1"))

	require.Eventually(t, func() bool {
		return len(controller.Transcript("p1")) == 1
	}, 5*time.Second, time.Millisecond)
	require.Equal(t, transcript, controller.Transcript("p1"))
	require.False(t, controller.IsLoading("p1"))
}

func TestControllerDiscardsTranscriptWhenViewingAnotherProblem(t *testing.T) {
	source := newGatedSource()
	controller, _ := newTestController(t, source)

	controller.SelectProblem("a")
	controller.HandleSubmission("a", VerdictWrongAnswer, 1, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "a"))

	controller.SelectProblem("b")
	source.release(1, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "hint"}}})

	require.Eventually(t, func() bool {
		return !controller.IsLoading("a")
	}, 5*time.Second, time.Millisecond)
	require.Nil(t, controller.Transcript("a"), "transcript for a background problem is discarded")
}

func TestControllerSwitchAwayAndBackKeepsLoading(t *testing.T) {
	source := newGatedSource()
	controller, _ := newTestController(t, source)

	controller.SelectProblem("a")
	controller.HandleSubmission("a", VerdictWrongAnswer, 1, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "a"))

	controller.SelectProblem("b")
	controller.SelectProblem("a")
	require.True(t, controller.IsLoading("a"), "returning to a polling problem shows the loading indicator")

	source.release(1, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "hint"}}})
	require.Eventually(t, func() bool {
		return len(controller.Transcript("a")) == 1
	}, 5*time.Second, time.Millisecond)
}

func TestControllerFailureRestoresHelpAffordance(t *testing.T) {
	source := &scriptedSource{err: context.DeadlineExceeded}
	controller, _ := newTestController(t, source)

	controller.SelectProblem("p1")
	controller.HandleSubmission("p1", VerdictWrongAnswer, 1, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "p1"))
	require.False(t, controller.Session("p1").CanRequestHelp, "help disabled while in flight")

	require.Eventually(t, func() bool {
		return controller.Notice("p1") == NoticeResubmit
	}, 5*time.Second, time.Millisecond)
	require.True(t, controller.Session("p1").CanRequestHelp, "retry affordance returns after failure")
}

func TestControllerSupersededPollNeverMutatesTranscript(t *testing.T) {
	source := newGatedSource()
	controller, _ := newTestController(t, source)

	controller.SelectProblem("p1")
	controller.HandleSubmission("p1", VerdictWrongAnswer, 1, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "p1"))

	// Resubmit: a newer snapshot supersedes the in-flight poll.
	controller.HandleSubmission("p1", VerdictWrongAnswer, 2, false)
	require.NoError(t, controller.RequestHelp(context.Background(), "p1"))

	source.release(2, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "v2"}}})
	require.Eventually(t, func() bool {
		return len(controller.Transcript("p1")) == 1
	}, 5*time.Second, time.Millisecond)

	source.release(1, StatusResult{Status: StatusResolved, Transcript: []Message{{Role: "agent", Content: "v1"}}})
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, "v2", controller.Transcript("p1")[0].Content, "stale continuation must be a no-op")
}
