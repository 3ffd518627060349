package logic

// Edge turns a level-sampled button into single-shot press events.
//
// Only the previous cycle's level is remembered; there is no timing filter.
// Contact bounce that spans a cycle boundary can register twice.
type Edge struct {
	last bool
}

// Pressed records level and returns true only on a not-pressed to pressed
// transition. Held and release cycles return false.
func (e *Edge) Pressed(level bool) bool {
	pressed := level && !e.last
	e.last = level
	return pressed
}
