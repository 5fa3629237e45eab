package generator

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"auto_content_syndicator/strategy"
)

// Session holds one brief and its generate/revise history.
type Session struct {
	ID    string
	Brief Brief

	mu       sync.Mutex
	strategy *strategy.ContentStrategy
	history  []Turn
	agent    *Agent
	now      func() time.Time
}

// NewSession creates a session with a fresh ULID. No strategy exists yet.
func NewSession(brief Brief, agent *Agent) *Session {
	return &Session{
		ID:    ulid.Make().String(),
		Brief: brief,
		agent: agent,
		now:   time.Now,
	}
}

// Propose generates the first strategy.
func (s *Session) Propose(ctx context.Context) (*strategy.ContentStrategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.agent.Generate(ctx, s.Brief, nil, s.history, "")
	if err != nil {
		return nil, err
	}
	s.strategy = st
	s.appendTurn("", st, "initial strategy")
	return st, nil
}

// Revise regenerates the strategy from a reviewer comment. Without a prior
// strategy it behaves like Propose.
func (s *Session) Revise(ctx context.Context, comment string) (*strategy.ContentStrategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.agent.Generate(ctx, s.Brief, s.strategy, s.history, comment)
	if err != nil {
		return nil, err
	}
	s.strategy = st
	s.appendTurn(comment, st, "revision")
	return st, nil
}

// Snapshot returns the current strategy and a copy of the history.
func (s *Session) Snapshot() (*strategy.ContentStrategy, []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy, append([]Turn(nil), s.history...)
}

func (s *Session) appendTurn(comment string, st *strategy.ContentStrategy, summary string) {
	s.history = append(s.history, Turn{
		Comment:   comment,
		Strategy:  st,
		Summary:   summary,
		CreatedAt: s.now(),
	})
}
