package engine

import "testing"

func TestProgressObserveMonotonic(t *testing.T) {
	var p Progress
	p.observe(3, 12)
	if p.Current != 3 || p.Total != 12 {
		t.Fatalf("progress = %+v", p)
	}

	// A stale or repeated server counter never moves the bar backwards.
	p.observe(2, 12)
	if p.Current != 3 {
		t.Errorf("current regressed to %d", p.Current)
	}
	p.observe(0, 0)
	if p.Current != 3 || p.Total != 12 {
		t.Errorf("zero observation changed progress: %+v", p)
	}

	p.observe(12, 12)
	if p.Current != 12 {
		t.Errorf("current = %d, want 12", p.Current)
	}
	// Never past the end, even if the server overshoots.
	p.observe(13, 12)
	if p.Current != 12 {
		t.Errorf("current = %d, want capped at 12", p.Current)
	}
}

func TestPhaseStrings(t *testing.T) {
	cases := map[Phase]string{
		PhaseIdle:           "idle",
		PhaseFetching:       "fetching",
		PhaseAwaitingAnswer: "awaiting-answer",
		PhaseSubmitting:     "submitting",
		PhaseShowingResult:  "showing-result",
		PhaseCompleted:      "completed",
		PhaseSignedOut:      "signed-out",
		Phase(99):           "unknown",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", phase, got, want)
		}
	}
}
