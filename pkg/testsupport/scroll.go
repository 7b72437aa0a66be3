package testsupport

import (
	"sync"

	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

// Element is a static scroll.Element.
type Element struct {
	Name    string
	Y       float64
	Up      scroll.Element
	Scrolls bool
}

func (e *Element) Top() float64 { return e.Y }

func (e *Element) Parent() scroll.Element {
	if e.Up == nil {
		return nil
	}
	return e.Up
}

func (e *Element) Scrollable() bool { return e.Scrolls }

// ScrollRequest records one ScrollIntoView call.
type ScrollRequest struct {
	Target    scroll.Element
	Container scroll.Element
	Config    scroll.Config
}

// Scroller records scroll requests and optionally fails them.
type Scroller struct {
	mu       sync.Mutex
	requests []ScrollRequest
	Err      error
	// OnScroll runs after a request is recorded.
	OnScroll func()
}

func (s *Scroller) ScrollIntoView(target, container scroll.Element, cfg scroll.Config) error {
	s.mu.Lock()
	s.requests = append(s.requests, ScrollRequest{Target: target, Container: container, Config: cfg})
	hook, err := s.OnScroll, s.Err
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// Requests returns the recorded scroll requests.
func (s *Scroller) Requests() []ScrollRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ScrollRequest(nil), s.requests...)
}
