package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/constants/prompts"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/telephony"
	"github.com/voxbridge/voxbridge/pkg/twiml"
)

// CallHandler serves the provider webhooks around a call: answering,
// ending, recording callbacks, and summary lookup.
type CallHandler struct {
	sessions  session.Store
	summaries summary.Repository
	telephony *telephony.Client
	cfg       *config.Settings
	logger    *Logger.Logger
}

func NewCallHandler(
	sessions session.Store,
	summaries summary.Repository,
	client *telephony.Client,
	cfg *config.Settings,
	logger *Logger.Logger,
) *CallHandler {
	return &CallHandler{
		sessions:  sessions,
		summaries: summaries,
		telephony: client,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleIncomingCall answers the provider's call webhook: it creates a
// session and returns markup that opens the media stream, then falls
// through to the end-stream webhook when the stream finishes.
func (h *CallHandler) HandleIncomingCall(c *gin.Context) {
	caller := c.PostForm("From")
	if caller == "" {
		caller = c.Query("From")
	}
	if caller == "" {
		caller = "Unknown"
	}
	callSID := c.PostForm("CallSid")
	if callSID == "" {
		callSID = c.Query("CallSid")
	}

	sessionID, err := h.sessions.Create(c.Request.Context(), caller)
	if err != nil {
		h.logger.Errorf("incoming call: create session: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	h.logger.Infof("Incoming call from %s handled, session %s", caller, sessionID)

	introduction := c.Query("introduction")
	if introduction == "" {
		introduction = prompts.DEFAULT_INTRO
	}

	host := h.publicHost(c)
	supportNumber := url.QueryEscape(h.cfg.Twilio.SupportNumber)
	streamURL := fmt.Sprintf("wss://%s/media-stream/session/%s/%s/%s",
		host, sessionID, supportNumber, url.QueryEscape(introduction))

	doc, err := twiml.NewResponse().
		Pause(1).
		ConnectStream(streamURL, twiml.Parameter{Name: "caller_number", Value: caller}).
		Redirect(fmt.Sprintf("https://%s/end-stream/%s?phone_number=%s", host, sessionID, supportNumber)).
		Render()
	if err != nil {
		h.logger.Errorf("incoming call: render markup: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	if h.cfg.Twilio.RecordCalls && callSID != "" {
		go h.startRecording(callSID, sessionID, host)
	}

	c.Data(http.StatusOK, "application/xml", []byte(doc))
}

// startRecording kicks off dual-channel recording shortly after the call is
// answered. Runs in the background; failures only log.
func (h *CallHandler) startRecording(callSID, sessionID, host string) {
	delay := time.Duration(h.cfg.Twilio.RecordingDelay) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}
	time.Sleep(delay)

	callbackURL := fmt.Sprintf("https://%s/log-recording/%s", host, sessionID)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rec, err := h.telephony.StartRecording(ctx, callSID, callbackURL)
	if err != nil {
		h.logger.Errorf("start recording for call %s: %v", callSID, err)
		return
	}
	h.logger.Infof("Recording %s started for call %s", rec.SID, callSID)
}

// HandleEndStream decides how the call ends once the media stream is over:
// dial a live agent when the caller escalated, hang up otherwise.
func (h *CallHandler) HandleEndStream(c *gin.Context) {
	sessionID := c.Param("session_id")
	phoneNumber := c.Query("phone_number")
	if phoneNumber == "" {
		phoneNumber = h.cfg.Twilio.SupportNumber
	}

	state := session.StateActive
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Errorf("end stream: load session %s: %v", sessionID, err)
	} else {
		state = sess.ControlState
	}
	h.logger.Infof("Ending stream for session %s with state %s", sessionID, state)

	builder := twiml.NewResponse()
	if state == session.StateTransferRequested {
		builder.DialNumber(phoneNumber)
	} else {
		builder.Hangup()
	}
	doc, err := builder.Render()
	if err != nil {
		h.logger.Errorf("end stream: render markup: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(doc))
}

// HandleLogRecording receives the provider's recording status callback and
// attaches the URL to the call record.
func (h *CallHandler) HandleLogRecording(c *gin.Context) {
	sessionID := c.Param("session_id")
	recordingURL := c.PostForm("RecordingUrl")
	if recordingURL == "" {
		h.logger.Warnf("No recording URL received for session %s", sessionID)
		c.JSON(http.StatusOK, RecordingLoggedResponse{Status: "Recording logged"})
		return
	}

	h.logger.Infof("Recording for session %s: %s", sessionID, recordingURL)
	if err := h.summaries.AttachRecording(c.Request.Context(), sessionID, recordingURL); err != nil {
		h.logger.Errorf("attach recording for session %s: %v", sessionID, err)
	}
	c.JSON(http.StatusOK, RecordingLoggedResponse{Status: "Recording logged"})
}

// HandleConversationSummary returns the stored digest for a session.
func (h *CallHandler) HandleConversationSummary(c *gin.Context) {
	sessionID := c.Param("session_id")

	s, err := h.summaries.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, summary.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Summary not found"})
			return
		}
		h.logger.Errorf("get summary for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		SessionID:    s.SessionID,
		CallerNumber: s.CallerNumber,
		Synopsis:     s.Synopsis,
		Transcript:   s.Transcript,
		RecordingURL: s.RecordingURL,
		GeneratedAt:  s.GeneratedAt,
	})
}

// HandleRecentSummaries lists the latest call digests for the review UI.
func (h *CallHandler) HandleRecentSummaries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.summaries.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("list summaries: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	out := make([]SummaryResponse, 0, len(records))
	for _, s := range records {
		out = append(out, SummaryResponse{
			SessionID:    s.SessionID,
			CallerNumber: s.CallerNumber,
			Synopsis:     s.Synopsis,
			Transcript:   s.Transcript,
			RecordingURL: s.RecordingURL,
			GeneratedAt:  s.GeneratedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *CallHandler) publicHost(c *gin.Context) string {
	if h.cfg.Server.PublicHost != "" {
		return h.cfg.Server.PublicHost
	}
	return c.Request.Host
}
