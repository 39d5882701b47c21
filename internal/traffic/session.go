package traffic

import (
	"context"
	"fmt"
)

// Renderer draws a frame. Implementations live outside this package and
// receive plain per-station values only.
type Renderer interface {
	Render(ctx context.Context, f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, f Frame) error

// Render calls fn(ctx, f).
func (fn RendererFunc) Render(ctx context.Context, f Frame) error {
	return fn(ctx, f)
}

// Session owns the slider state for one viewer. It starts Unfiltered and is
// not safe for concurrent use; give each viewer its own Session.
type Session struct {
	engine   *Engine
	renderer Renderer
	current  Selection
}

// NewSession creates a Session in the Unfiltered state.
func NewSession(engine *Engine, renderer Renderer) *Session {
	return &Session{engine: engine, renderer: renderer, current: Unfiltered}
}

// Selection returns the current state.
func (s *Session) Selection() Selection { return s.current }

// OnSelectionChange recomputes the frame for value, hands it to the
// renderer and returns it. On error the previous selection is kept.
func (s *Session) OnSelectionChange(ctx context.Context, value int) (Frame, error) {
	sel, err := NewSelection(value)
	if err != nil {
		return Frame{}, err
	}
	f, err := s.engine.Frame(ctx, sel)
	if err != nil {
		return Frame{}, err
	}
	if s.renderer != nil {
		if err := s.renderer.Render(ctx, f); err != nil {
			return Frame{}, fmt.Errorf("render %s: %w", sel, err)
		}
	}
	s.current = sel
	return f, nil
}

// Rebind points the session at a new dataset snapshot and re-renders the
// current selection against it.
func (s *Session) Rebind(ctx context.Context, engine *Engine) (Frame, error) {
	s.engine = engine
	return s.OnSelectionChange(ctx, int(s.current))
}
