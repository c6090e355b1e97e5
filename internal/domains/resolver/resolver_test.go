package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/session/drivers"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/assistant"
)

type stubSearcher struct {
	contexts []string
	err      error
	calls    int
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]string, error) {
	s.calls++
	return s.contexts, s.err
}

type stubCompleter struct {
	answer   string
	err      error
	failures int // fail this many calls before succeeding
	calls    int
	lastMsgs []assistant.Message
}

func (c *stubCompleter) Complete(ctx context.Context, msgs []assistant.Message) (string, error) {
	c.calls++
	c.lastMsgs = msgs
	if c.err != nil {
		return "", c.err
	}
	if c.calls <= c.failures {
		return "", errors.New("transient failure")
	}
	return c.answer, nil
}

func newTestService(t *testing.T, searcher Searcher, completer assistant.Completer) (*Service, session.Store, string) {
	t.Helper()
	store := drivers.NewMemoryStore()
	id, err := store.Create(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	svc := New(searcher, completer, store, Logger.NewNop(), WithRetry(3, time.Millisecond))
	return svc, store, id
}

func TestResolveSuccessRecordsTurns(t *testing.T) {
	searcher := &stubSearcher{contexts: []string{"doc one", "doc two"}}
	completer := &stubCompleter{answer: "  The answer.  "}
	svc, store, id := newTestService(t, searcher, completer)

	got := svc.Resolve(context.Background(), id, "what is the policy?")
	if got != "The answer." {
		t.Errorf("answer = %q, want trimmed completion", got)
	}

	sess, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	n := len(sess.Transcript)
	if n < 2 {
		t.Fatalf("transcript has %d turns, want query and answer appended", n)
	}
	if sess.Transcript[n-2].Role != session.RoleUser || sess.Transcript[n-2].Text != "what is the policy?" {
		t.Errorf("penultimate turn = %+v, want recorded query", sess.Transcript[n-2])
	}
	if sess.Transcript[n-1].Role != session.RoleAssistant || sess.Transcript[n-1].Text != "The answer." {
		t.Errorf("last turn = %+v, want recorded answer", sess.Transcript[n-1])
	}
}

func TestResolveGroundsOnRetrievedContext(t *testing.T) {
	searcher := &stubSearcher{contexts: []string{"alpha", "beta"}}
	completer := &stubCompleter{answer: "ok"}
	svc, _, id := newTestService(t, searcher, completer)

	svc.Resolve(context.Background(), id, "query")

	var found bool
	for _, msg := range completer.lastMsgs {
		if msg.MsgRole == assistant.SYSTEM && strings.Contains(msg.Content, "Retrieved Context: alpha\nbeta") {
			found = true
		}
	}
	if !found {
		t.Errorf("no grounding message in %+v", completer.lastMsgs)
	}

	last := completer.lastMsgs[len(completer.lastMsgs)-1]
	if last.MsgRole != assistant.USER || last.Content != "query" {
		t.Errorf("last message = %+v, want the user query", last)
	}
}

func TestResolveQueryNotDuplicatedInMessages(t *testing.T) {
	searcher := &stubSearcher{}
	completer := &stubCompleter{answer: "ok"}
	svc, _, id := newTestService(t, searcher, completer)

	svc.Resolve(context.Background(), id, "only once")

	count := 0
	for _, msg := range completer.lastMsgs {
		if msg.MsgRole == assistant.USER && msg.Content == "only once" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("query appears %d times in messages, want 1", count)
	}
}

func TestResolveRetriesThenFallsBack(t *testing.T) {
	searcher := &stubSearcher{}
	completer := &stubCompleter{err: errors.New("down")}
	svc, store, id := newTestService(t, searcher, completer)

	got := svc.Resolve(context.Background(), id, "query")
	if got != FallbackAnswer {
		t.Errorf("answer = %q, want %q", got, FallbackAnswer)
	}
	if completer.calls != 3 {
		t.Errorf("completer called %d times, want exactly 3", completer.calls)
	}

	sess, _ := store.Get(context.Background(), id)
	for _, turn := range sess.Transcript {
		if turn.Role == session.RoleAssistant {
			t.Errorf("assistant turn recorded on failure: %+v", turn)
		}
	}
}

func TestResolveRecoversOnSecondAttempt(t *testing.T) {
	searcher := &stubSearcher{}
	completer := &stubCompleter{answer: "recovered", failures: 1}
	svc, _, id := newTestService(t, searcher, completer)

	got := svc.Resolve(context.Background(), id, "query")
	if got != "recovered" {
		t.Errorf("answer = %q, want recovery on second attempt", got)
	}
	if completer.calls != 2 {
		t.Errorf("completer called %d times, want 2", completer.calls)
	}
}

func TestResolveSearchFailureCountsAsAttempt(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("qdrant down")}
	completer := &stubCompleter{answer: "never"}
	svc, _, id := newTestService(t, searcher, completer)

	got := svc.Resolve(context.Background(), id, "query")
	if got != FallbackAnswer {
		t.Errorf("answer = %q, want fallback", got)
	}
	if searcher.calls != 3 {
		t.Errorf("searcher called %d times, want 3", searcher.calls)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times, want 0", completer.calls)
	}
}
