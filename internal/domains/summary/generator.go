// Package summary produces and stores after-call conversation digests.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxbridge/voxbridge/internal/constants/prompts"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/assistant"
)

type Generator struct {
	completer assistant.Completer
	sessions  session.Store
	repo      Repository
	logger    *Logger.Logger
}

func NewGenerator(completer assistant.Completer, sessions session.Store, repo Repository, logger *Logger.Logger) *Generator {
	return &Generator{
		completer: completer,
		sessions:  sessions,
		repo:      repo,
		logger:    logger,
	}
}

// Generate summarizes the session's transcript and persists the result.
// A session with no user or assistant turns yields (nil, nil); summarization
// never takes a call down, so completion failures are returned for the
// caller to log rather than wrapped in partial summaries.
func (g *Generator) Generate(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	spoken := make([]session.Turn, 0, len(sess.Transcript))
	for _, turn := range sess.Transcript {
		if turn.Role == session.RoleUser || turn.Role == session.RoleAssistant {
			spoken = append(spoken, turn)
		}
	}
	if len(spoken) == 0 {
		return nil, nil
	}

	prompt := prompts.SUMMARY_PROMPT.GetCurrentPrompt().Render(map[string]string{
		"conversation": formatConversation(spoken),
	})
	synopsis, err := g.completer.Complete(ctx, []assistant.Message{
		assistant.SystemMessage(prompts.SUMMARIZER_ROLE),
		assistant.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("summarize session %s: %w", sessionID, err)
	}

	s := &Summary{
		SessionID:    sessionID,
		CallerNumber: sess.CallerNumber,
		Synopsis:     strings.TrimSpace(synopsis),
		Transcript:   spoken,
		GeneratedAt:  time.Now(),
	}
	if err := g.repo.Save(ctx, s); err != nil {
		g.logger.Errorf("summary: persist for session %s: %v", sessionID, err)
	}
	g.logger.Infof("Conversation summary for session %s: %s", sessionID, s.Synopsis)
	return s, nil
}

func formatConversation(turns []session.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "User"
		if turn.Role == session.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Text))
	}
	return strings.Join(lines, "\n")
}
