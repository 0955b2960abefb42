package cli

import (
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/subguard/internal/client/controller"
)

// sessionStatus is the controller state shown in the prompt. It is fed
// from the controller's event channel and drained each time the prompt is
// drawn, so it never has to poll the controller between commands.
type sessionStatus struct {
	events <-chan controller.Event
	stop   func()

	mu    sync.Mutex
	flags controller.Flags
	// steps holds the current state of each running create or reveal.
	steps map[string]string
}

func (a *App) followController() {
	events, stop := a.ctrl.Subscribe()
	a.status = &sessionStatus{
		events: events,
		stop:   stop,
		flags:  a.ctrl.Flags(),
		steps:  map[string]string{},
	}
	a.closers = append(a.closers, func() error { stop(); return nil })
}

// drainEvents applies every buffered event without blocking.
func (a *App) drainEvents() {
	for {
		select {
		case e, ok := <-a.status.events:
			if !ok {
				return
			}
			a.applyEvent(e)
		default:
			return
		}
	}
}

func (a *App) applyEvent(e controller.Event) {
	s := a.status
	switch e.Kind {
	case controller.StateChanged:
		s.mu.Lock()
		s.steps[e.Op] = e.State
		s.mu.Unlock()
	case controller.FlagsChanged, controller.RecordsChanged:
		// events can be dropped when the buffer is full; the accessor is
		// the authority, the event only says when to look
		f := a.ctrl.Flags()
		s.mu.Lock()
		s.flags = f
		if !f.Creating {
			delete(s.steps, "create")
		}
		if !f.Decrypting {
			delete(s.steps, "reveal")
		}
		s.mu.Unlock()
	}
}

// describe renders the cached part of the status line.
func (s *sessionStatus) describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if s.flags.FromCache {
		b.WriteString(" cached")
	}
	ops := make([]string, 0, len(s.steps))
	for op := range s.steps {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		b.WriteString(" | " + op + ": " + s.steps[op])
	}
	return b.String()
}
