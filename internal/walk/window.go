package walk

// acceptanceWindow is a fixed-size ring over the accept/reject history of the
// last W iterations.
type acceptanceWindow struct {
	events []bool
	next   int
	filled int
}

func newAcceptanceWindow(size int) *acceptanceWindow {
	return &acceptanceWindow{events: make([]bool, size)}
}

func (w *acceptanceWindow) Observe(accepted bool) {
	w.events[w.next] = accepted
	w.next = (w.next + 1) % len(w.events)
	if w.filled < len(w.events) {
		w.filled++
	}
}

func (w *acceptanceWindow) Full() bool {
	return w.filled == len(w.events)
}

// Rate is the acceptance fraction over the observed part of the window.
func (w *acceptanceWindow) Rate() float64 {
	if w.filled == 0 {
		return 0
	}
	accepted := 0
	for i := 0; i < w.filled; i++ {
		if w.events[i] {
			accepted++
		}
	}
	return float64(accepted) / float64(w.filled)
}
