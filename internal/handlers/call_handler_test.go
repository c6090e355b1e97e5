package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/session/drivers"
	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/telephony"
)

func newCallTestRouter(t *testing.T) (*gin.Engine, *CallHandler, session.Store, *summary.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Settings{}
	cfg.Server.PublicHost = "relay.example.com"
	cfg.Twilio.SupportNumber = "+15550001111"

	sessions := drivers.NewMemoryStore()
	summaries := summary.NewMemoryRepo()
	client := telephony.New("ACtest", "secret")
	h := NewCallHandler(sessions, summaries, client, cfg, Logger.NewNop())

	r := gin.New()
	r.POST("/incoming-call", h.HandleIncomingCall)
	r.GET("/end-stream/:session_id", h.HandleEndStream)
	r.POST("/log-recording/:session_id", h.HandleLogRecording)
	r.GET("/conversation-summary/:session_id", h.HandleConversationSummary)
	r.GET("/conversation-summaries", h.HandleRecentSummaries)
	return r, h, sessions, summaries
}

func TestIncomingCallReturnsStreamMarkup(t *testing.T) {
	r, _, _, _ := newCallTestRouter(t)

	form := url.Values{"From": {"+15557654321"}, "CallSid": {"CA123"}}
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type = %q, want application/xml", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "wss://relay.example.com/media-stream/session/") {
		t.Errorf("markup missing stream url: %s", body)
	}
	if !strings.Contains(body, `name="caller_number"`) || !strings.Contains(body, "+15557654321") {
		t.Errorf("markup missing caller parameter: %s", body)
	}
	if !strings.Contains(body, "<Pause") {
		t.Errorf("markup missing pause: %s", body)
	}
	if !strings.Contains(body, "/end-stream/") {
		t.Errorf("markup missing end-stream redirect: %s", body)
	}
}

func TestIncomingCallEscapesIntroduction(t *testing.T) {
	r, _, _, _ := newCallTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/incoming-call?From=%2B15557654321&introduction=Hi+there", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Hi+there") {
		t.Errorf("introduction not query-escaped in stream url: %s", w.Body.String())
	}
}

func TestEndStreamHangsUpByDefault(t *testing.T) {
	r, _, sessions, _ := newCallTestRouter(t)
	id, err := sessions.Create(context.Background(), "+15557654321")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/end-stream/"+id, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Errorf("expected hangup, got: %s", body)
	}
	if strings.Contains(body, "<Dial") {
		t.Errorf("unexpected dial for non-escalated call: %s", body)
	}
}

func TestEndStreamDialsAgentAfterEscalation(t *testing.T) {
	r, _, sessions, _ := newCallTestRouter(t)
	id, err := sessions.Create(context.Background(), "+15557654321")
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.SetState(context.Background(), id, session.StateTransferRequested); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/end-stream/"+id+"?phone_number=%2B15559990000", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "<Dial>") || !strings.Contains(body, "+15559990000") {
		t.Errorf("expected dial to agent number, got: %s", body)
	}
}

func TestEndStreamUnknownSessionStillAnswers(t *testing.T) {
	r, _, _, _ := newCallTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/end-stream/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Hangup") {
		t.Errorf("expected hangup for unknown session, got: %s", w.Body.String())
	}
}

func TestLogRecordingAttachesURL(t *testing.T) {
	r, _, _, summaries := newCallTestRouter(t)

	form := url.Values{"RecordingUrl": {"https://api.example.com/rec/RE1"}}
	req := httptest.NewRequest(http.MethodPost, "/log-recording/sess-1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	s, err := summaries.GetBySessionID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("recording not attached: %v", err)
	}
	if s.RecordingURL != "https://api.example.com/rec/RE1" {
		t.Errorf("recording url = %q", s.RecordingURL)
	}
}

func TestLogRecordingWithoutURLStillAcknowledges(t *testing.T) {
	r, _, _, _ := newCallTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/log-recording/sess-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestConversationSummaryFound(t *testing.T) {
	r, _, _, summaries := newCallTestRouter(t)
	err := summaries.Save(context.Background(), &summary.Summary{
		SessionID:    "sess-2",
		CallerNumber: "+15557654321",
		Synopsis:     "Caller asked about billing.",
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/conversation-summary/sess-2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Caller asked about billing.") {
		t.Errorf("summary body missing synopsis: %s", w.Body.String())
	}
}

func TestRecentSummariesListsNewestFirst(t *testing.T) {
	r, _, _, summaries := newCallTestRouter(t)
	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		err := summaries.Save(context.Background(), &summary.Summary{
			SessionID:   id,
			Synopsis:    "synopsis " + id,
			GeneratedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/conversation-summaries?limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"new"`) || !strings.Contains(body, `"mid"`) {
		t.Errorf("expected two newest summaries, got: %s", body)
	}
	if strings.Contains(body, `"old"`) {
		t.Errorf("limit not applied, got: %s", body)
	}
}

func TestConversationSummaryNotFound(t *testing.T) {
	r, _, _, _ := newCallTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/conversation-summary/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
