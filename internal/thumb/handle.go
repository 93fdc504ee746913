package thumb

import (
	"image"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// State is the lifecycle of a thumbnail handle.
type State int

const (
	Absent  State = iota // not requested, or the last attempt failed
	Loading              // generation dispatched, result not yet polled
	Ready                // image available
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return "unknown"
}

type result struct {
	img image.Image
	err error
}

// Handle tracks one entry's thumbnail. It is owned by a single goroutine;
// only the one-shot result channel is shared with the background task.
type Handle struct {
	loader *Loader
	state  State
	done   chan result
	img    image.Image
	err    error
}

// NewHandle returns an Absent handle backed by l.
func (l *Loader) NewHandle() *Handle {
	return &Handle{loader: l}
}

// Request dispatches generation for path. It only acts from Absent and
// reports whether a task was dispatched. A cached thumbnail makes the handle
// Ready immediately.
func (h *Handle) Request(path string) bool {
	if h == nil || h.loader == nil || h.state != Absent {
		return false
	}
	if img, ok := h.loader.Get(path); ok {
		h.img, h.err, h.state = img, nil, Ready
		return false
	}

	done := make(chan result, 1)
	h.done = done
	h.state = Loading
	h.err = nil
	debug.Log(debug.THUMB, "Request: %s", path)
	h.loader.pool.Go(func() {
		img, err := h.loader.Load(path)
		done <- result{img: img, err: err}
	})
	return true
}

// Poll returns the current image and state without blocking. A finished
// task moves the handle to Ready, or back to Absent on failure so that it
// can be requested again.
func (h *Handle) Poll() (image.Image, State) {
	if h == nil {
		return nil, Absent
	}
	if h.state != Loading {
		return h.img, h.state
	}
	select {
	case r := <-h.done:
		h.done = nil
		if r.err != nil {
			h.err = r.err
			h.state = Absent
			debug.Log(debug.THUMB, "Poll: generation failed: %v", r.err)
			return nil, Absent
		}
		h.img = r.img
		h.state = Ready
	default:
	}
	return h.img, h.state
}

// State returns the handle state without polling the task.
func (h *Handle) State() State {
	if h == nil {
		return Absent
	}
	return h.state
}

// Err returns the error of the last failed generation.
func (h *Handle) Err() error {
	if h == nil {
		return nil
	}
	return h.err
}
