package quantizer

import "testing"

func TestBlinker(t *testing.T) {
	var b blinker
	b.advance(10)
	if b.active() {
		t.Fatal("an idle blinker should stay idle")
	}

	b.start()
	if !b.lit() {
		t.Fatal("expected the first phase to be lit")
	}
	for i := 1; i < 2*blinkCycles; i++ {
		b.advance(blinkInterval)
		if !b.active() {
			t.Fatalf("expected the blinker to be active after %d phases", i)
		}
		if want := i%2 == 0; b.lit() != want {
			t.Errorf("phase %d: expected lit=%v", i, want)
		}
	}
	b.advance(blinkInterval)
	if b.active() {
		t.Error("expected the blinker to finish after four cycles")
	}
}

func TestBlinkerRestart(t *testing.T) {
	var b blinker
	b.start()
	b.advance(3 * blinkInterval)
	b.start()
	b.advance(7 * blinkInterval)
	if !b.active() {
		t.Error("expected a restart to begin a full sequence")
	}
	b.advance(blinkInterval)
	if b.active() {
		t.Error("expected the restarted sequence to end")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle:           "idle",
		RebuildPending: "rebuild pending",
		CvEngaged:      "cv engaged",
		ErrorBlink:     "error",
		State(42):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("expected %q, got %q", want, s.String())
		}
	}
}
