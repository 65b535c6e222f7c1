package sigchan

import "testing"

func TestEmitCoalesces(t *testing.T) {
	c := New(1)
	if !c.Emit() {
		t.Fatalf("first emit should be accepted")
	}
	if c.Emit() {
		t.Fatalf("second emit should be coalesced")
	}
	select {
	case <-c.C():
	default:
		t.Fatalf("expected pending signal")
	}
	if !c.Emit() {
		t.Fatalf("emit after receive should be accepted")
	}
}

func TestDrain(t *testing.T) {
	c := New(3)
	c.Emit()
	c.Emit()
	if n := c.Drain(); n != 2 {
		t.Fatalf("drained %d, want 2", n)
	}
	if n := c.Drain(); n != 0 {
		t.Fatalf("drained %d on empty chan", n)
	}
}

func TestNewClampsBuffer(t *testing.T) {
	c := New(0)
	if !c.Emit() {
		t.Fatalf("zero buffer should be clamped to 1")
	}
}
