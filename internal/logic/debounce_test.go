package logic

import "testing"

func TestEdgeSinglePress(t *testing.T) {
	for _, held := range []int{1, 2, 5, 40} {
		var e Edge
		levels := []bool{false, false}
		for i := 0; i < held; i++ {
			levels = append(levels, true)
		}
		levels = append(levels, false, false)

		presses := 0
		for _, l := range levels {
			if e.Pressed(l) {
				presses++
			}
		}
		if presses != 1 {
			t.Errorf("held %d cycles: got %d presses, want 1", held, presses)
		}
	}
}

func TestEdgeFiresOnRisingCycle(t *testing.T) {
	var e Edge
	levels := []bool{false, true, true, false}
	want := []bool{false, true, false, false}
	for i, l := range levels {
		if got := e.Pressed(l); got != want[i] {
			t.Errorf("cycle %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestEdgeHeldAtStartup(t *testing.T) {
	// A button already down on the first cycle counts as a press.
	var e Edge
	if !e.Pressed(true) {
		t.Error("expected press on first cycle with button down")
	}
	if e.Pressed(true) {
		t.Error("expected no press while held")
	}
}

func TestEdgeRepeatedPresses(t *testing.T) {
	var e Edge
	levels := []bool{true, false, true, false, true, true, false}
	presses := 0
	for _, l := range levels {
		if e.Pressed(l) {
			presses++
		}
	}
	if presses != 3 {
		t.Errorf("got %d presses, want 3", presses)
	}
}
