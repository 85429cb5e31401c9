package helpflow

// Window is the externally supplied availability window for a problem set.
type Window string

// Window values.
const (
	WindowNotStarted Window = "not_started"
	WindowActive     Window = "active"
	WindowEnded      Window = "ended"
)

// PracticeState describes what the practice panel should display.
type PracticeState string

// PracticeState values.
const (
	PracticeLocked     PracticeState = "locked"
	PracticeTodo       PracticeState = "todo"
	PracticeGenerating PracticeState = "generating"
	PracticeDone       PracticeState = "done"
	PracticeNone       PracticeState = "no_practice"
)

// PracticeSnapshot summarises the practice set for one problem.
type PracticeSnapshot struct {
	Exists             bool `json:"exists"`
	Generating         bool `json:"generating"`
	AllAnsweredCorrect bool `json:"all_answered_correct"`
}

// GateInput carries everything panel gating depends on.
type GateInput struct {
	ProblemSelected bool
	Window          Window
	Session         Session
	Practice        PracticeSnapshot
}

// Gates reports which panels are selectable. Unsupported input combinations
// resolve to disabled rather than an error.
type Gates struct {
	Editor        bool          `json:"editor"`
	Chat          bool          `json:"chat"`
	Practice      bool          `json:"practice"`
	PracticeState PracticeState `json:"practice_state"`
}

// EvaluateGates derives panel availability from the current session state.
// Accepted submissions lock the editor, chat requires at least one
// submission, and practice opens only after acceptance. Everything is
// disabled outside the active window.
func EvaluateGates(in GateInput) Gates {
	gates := Gates{PracticeState: practiceState(in)}

	if !in.ProblemSelected || in.Window != WindowActive {
		return gates
	}

	gates.Editor = !in.Session.IsAccepted
	gates.Chat = in.Session.HasSubmission
	gates.Practice = gates.PracticeState != PracticeLocked

	return gates
}

func practiceState(in GateInput) PracticeState {
	if !in.ProblemSelected || !in.Session.IsAccepted {
		return PracticeLocked
	}

	switch {
	case in.Practice.Generating:
		return PracticeGenerating
	case !in.Practice.Exists:
		return PracticeNone
	case in.Practice.AllAnsweredCorrect:
		return PracticeDone
	default:
		return PracticeTodo
	}
}
