package drivers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/voxbridge/voxbridge/internal/domains/session"
)

func TestMemoryStoreCreateSeedsTranscript(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.CallerNumber != "+15551234567" {
		t.Errorf("caller number = %q", sess.CallerNumber)
	}
	if sess.ControlState != session.StateActive {
		t.Errorf("new session state = %s, want active", sess.ControlState)
	}
	if len(sess.Transcript) != 1 || sess.Transcript[0].Role != session.RoleSystem {
		t.Errorf("expected one seeded system turn, got %v", sess.Transcript)
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nope"); err != session.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreSetStateForwardOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, "caller")

	if err := store.SetState(ctx, id, session.StateTransferRequested); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	// Racing second setter is a no-op.
	if err := store.SetState(ctx, id, session.StateTransferRequested); err != nil {
		t.Fatalf("repeated SetState failed: %v", err)
	}
	if err := store.SetState(ctx, id, session.StateEnded); err != nil {
		t.Fatalf("SetState to ended failed: %v", err)
	}
	// Ended is absorbing.
	if err := store.SetState(ctx, id, session.StateActive); err != nil {
		t.Fatalf("SetState after ended errored: %v", err)
	}

	sess, _ := store.Get(ctx, id)
	if sess.ControlState != session.StateEnded {
		t.Errorf("state = %s, want ended", sess.ControlState)
	}
}

func TestMemoryStoreAppendTurn(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, "caller")

	if err := store.AppendTurn(ctx, id, session.Turn{Role: session.RoleUser, Text: "hello"}); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := store.AppendTurn(ctx, id, session.Turn{Role: session.RoleAssistant, Text: "hi there"}); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	sess, _ := store.Get(ctx, id)
	if len(sess.Transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(sess.Transcript))
	}
	if sess.Transcript[1].Text != "hello" || sess.Transcript[2].Text != "hi there" {
		t.Errorf("unexpected transcript: %v", sess.Transcript)
	}
	if sess.Transcript[2].At.IsZero() {
		t.Error("AppendTurn should stamp the turn time")
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.Create(ctx, "caller")

	sess, _ := store.Get(ctx, id)
	sess.Transcript[0].Text = "mutated"
	sess.ControlState = session.StateEnded

	fresh, _ := store.Get(ctx, id)
	if fresh.Transcript[0].Text == "mutated" || fresh.ControlState == session.StateEnded {
		t.Error("Get must not expose internal state for mutation")
	}
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, err := store.Create(ctx, fmt.Sprintf("+1555%07d", n))
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			for j := 0; j < 20; j++ {
				if err := store.AppendTurn(ctx, id, session.Turn{Role: session.RoleUser, Text: "x"}); err != nil {
					t.Errorf("AppendTurn failed: %v", err)
					return
				}
				if err := store.Touch(ctx, id); err != nil {
					t.Errorf("Touch failed: %v", err)
					return
				}
			}
			sess, err := store.Get(ctx, id)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			if len(sess.Transcript) != 21 {
				t.Errorf("transcript length = %d, want 21", len(sess.Transcript))
			}
		}(i)
	}
	wg.Wait()
}
