// Package resolver answers knowledge lookups raised by the voice agent.
// Each query is grounded on retrieved context and the session transcript,
// with bounded retries and a spoken fallback when everything fails.
package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/voxbridge/voxbridge/internal/constants/prompts"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/assistant"
	"github.com/voxbridge/voxbridge/pkg/retry"
)

// FallbackAnswer is spoken verbatim when every resolution attempt fails.
const FallbackAnswer = "Sorry, I didn't get your query."

// Searcher returns grounding passages for a query, best match first.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

type Service struct {
	searcher    Searcher
	completer   assistant.Completer
	sessions    session.Store
	logger      *Logger.Logger
	maxAttempts int
	backoff     time.Duration
}

type Option func(*Service)

// WithRetry overrides the attempt count and fixed backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.maxAttempts = attempts
		s.backoff = backoff
	}
}

func New(searcher Searcher, completer assistant.Completer, sessions session.Store, logger *Logger.Logger, opts ...Option) *Service {
	s := &Service{
		searcher:    searcher,
		completer:   completer,
		sessions:    sessions,
		logger:      logger,
		maxAttempts: 3,
		backoff:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve answers query for the given session. The query is recorded as a
// user turn up front; the answer is recorded as an assistant turn only when
// an attempt succeeds. Resolve never fails outright: after the last attempt
// it returns FallbackAnswer.
func (s *Service) Resolve(ctx context.Context, sessionID, query string) string {
	if err := s.sessions.AppendTurn(ctx, sessionID, session.Turn{
		Role: session.RoleUser,
		Text: query,
		At:   time.Now(),
	}); err != nil {
		s.logger.Errorf("resolver: record query for session %s: %v", sessionID, err)
	}

	var answer string
	attempt := 0
	err := retry.Do(ctx, s.maxAttempts, s.backoff, func(ctx context.Context) error {
		attempt++
		a, err := s.attempt(ctx, sessionID, query)
		if err != nil {
			s.logger.Errorf("resolver: attempt %d/%d for session %s failed: %v", attempt, s.maxAttempts, sessionID, err)
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return FallbackAnswer
	}

	if err := s.sessions.AppendTurn(ctx, sessionID, session.Turn{
		Role: session.RoleAssistant,
		Text: answer,
		At:   time.Now(),
	}); err != nil {
		s.logger.Errorf("resolver: record answer for session %s: %v", sessionID, err)
	}
	return answer
}

func (s *Service) attempt(ctx context.Context, sessionID, query string) (string, error) {
	contexts, err := s.searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}

	msgs := []assistant.Message{
		assistant.SystemMessage(prompts.RESOLVER_PROMPT.GetCurrentPrompt().Content),
		assistant.SystemMessage("Retrieved Context: " + strings.Join(contexts, "\n")),
	}
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		for _, turn := range sess.Transcript {
			msgs = append(msgs, assistant.Message{MsgRole: assistant.Role(turn.Role), Content: turn.Text})
		}
	}
	// the transcript normally already ends with the recorded query; only
	// append it when the session could not be read
	if last := msgs[len(msgs)-1]; last.MsgRole != assistant.USER || last.Content != query {
		msgs = append(msgs, assistant.UserMessage(query))
	}

	answer, err := s.completer.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
