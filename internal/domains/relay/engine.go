// Package relay bridges one telephony media stream to one realtime model
// session for the lifetime of a call: caller audio up, model audio down,
// barge-in, tool dispatch, and a watchdog against dead air.
package relay

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"github.com/voxbridge/voxbridge/internal/constants/prompts"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

// Tool names the model may invoke.
const (
	ToolLookupKnowledge = "lookup_knowledge"
	ToolTransferToAgent = "transfer_to_agent"
)

// Lifecycle states.
const (
	StateInitializing = "initializing"
	StateStreaming    = "streaming"
	StateTransferring = "transferring"
	StateTimedOut     = "timed_out"
	StateDisconnected = "disconnected"
	StateClosed       = "closed"
)

// Lifecycle events.
const (
	eventStream     = "stream"
	eventTransfer   = "transfer"
	eventTimeout    = "timeout"
	eventDisconnect = "disconnect"
	eventClose      = "close"
)

// Resolver answers knowledge lookups. It never fails outright; exhausted
// retries come back as a spoken fallback string.
type Resolver interface {
	Resolve(ctx context.Context, sessionID, query string) string
}

// Summarizer produces the after-call digest.
type Summarizer interface {
	Generate(ctx context.Context, sessionID string) (*summary.Summary, error)
}

// Config carries the per-call parameters of one engine instance.
type Config struct {
	SessionID     string
	SupportNumber string
	Introduction  string
	Model         ModelConfig

	// FillerAudio is a base64 payload played while a knowledge lookup runs.
	// Empty disables the filler.
	FillerAudio string

	WatchdogInterval time.Duration
	IdleCeiling      time.Duration
}

// safeConn serializes writes to a websocket connection.
type safeConn struct {
	conn Conn
	mu   sync.Mutex
}

func (s *safeConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeConn) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeConn) Close() error {
	return s.conn.Close()
}

// Engine runs one call. Create with New, then Run exactly once.
type Engine struct {
	cfg        Config
	telephony  *safeConn
	dial       ModelDialer
	model      *ModelClient
	sessions   session.Store
	resolver   Resolver
	summarizer Summarizer
	logger     *Logger.Logger
	lifecycle  *fsm.FSM

	terminateCh   chan struct{}
	terminateOnce sync.Once
	finalizeOnce  sync.Once

	mu            sync.Mutex
	streamSID     string
	streamStarted bool
	endState      string

	lastActivity atomic.Int64 // unix nanos
}

type Option func(*Engine)

// WithModelDialer overrides how the model socket is opened. Used in tests.
func WithModelDialer(dial ModelDialer) Option {
	return func(e *Engine) { e.dial = dial }
}

func New(cfg Config, telephony Conn, sessions session.Store, resolver Resolver, summarizer Summarizer, logger *Logger.Logger, opts ...Option) *Engine {
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = 5 * time.Second
	}
	if cfg.IdleCeiling <= 0 {
		cfg.IdleCeiling = 5 * time.Minute
	}

	e := &Engine{
		cfg:         cfg,
		telephony:   &safeConn{conn: telephony},
		dial:        DialModel,
		sessions:    sessions,
		resolver:    resolver,
		summarizer:  summarizer,
		logger:      logger,
		terminateCh: make(chan struct{}),
		lifecycle: fsm.NewFSM(
			StateInitializing,
			fsm.Events{
				{Name: eventStream, Src: []string{StateInitializing}, Dst: StateStreaming},
				{Name: eventTransfer, Src: []string{StateInitializing, StateStreaming}, Dst: StateTransferring},
				{Name: eventTimeout, Src: []string{StateInitializing, StateStreaming}, Dst: StateTimedOut},
				{Name: eventDisconnect, Src: []string{StateInitializing, StateStreaming}, Dst: StateDisconnected},
				{Name: eventClose, Src: []string{StateInitializing, StateStreaming, StateTransferring, StateTimedOut, StateDisconnected}, Dst: StateClosed},
			},
			fsm.Callbacks{},
		),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() string {
	return e.lifecycle.Current()
}

// EndState reports the terminal state the call reached before closing:
// transferring, timed_out, or disconnected. Empty while the call runs.
func (e *Engine) EndState() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endState
}

// Run bridges the call until either socket closes, the caller escalates,
// or the watchdog fires. It always leaves both sockets closed.
func (e *Engine) Run(ctx context.Context) error {
	model, err := e.dial(ctx, e.cfg.Model)
	if err != nil {
		e.telephony.Close()
		return err
	}
	e.model = model

	instructions := prompts.AGENT_PROMPT.GetCurrentPrompt().Render(map[string]string{
		"introduction": e.cfg.Introduction,
		"phone_number": e.cfg.SupportNumber,
	})
	if err := model.SendSessionUpdate(e.cfg.Model.Voice, instructions); err != nil {
		e.finalize()
		return err
	}
	if err := model.SendIntroduction(e.cfg.Introduction); err != nil {
		e.finalize()
		return err
	}

	e.transition(ctx, eventStream)
	e.markActivity()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.pumpInbound(ctx)
	}()
	go func() {
		defer wg.Done()
		e.pumpOutbound(ctx)
	}()
	go func() {
		defer wg.Done()
		e.watchdog(ctx)
	}()
	wg.Wait()

	e.finalize()
	return nil
}

// pumpInbound moves telephony frames toward the model until the socket
// closes or the call terminates.
func (e *Engine) pumpInbound(ctx context.Context) {
	for {
		_, data, err := e.telephony.ReadMessage()
		if err != nil {
			e.logger.Infof("relay %s: telephony socket closed: %v", e.cfg.SessionID, err)
			e.terminate(ctx, eventDisconnect)
			return
		}

		frame, err := ParseFrame(data)
		if err != nil {
			e.logger.Errorf("relay %s: dropping telephony frame: %v", e.cfg.SessionID, err)
			continue
		}

		switch frame.Kind {
		case FrameMedia:
			if !e.started() {
				continue
			}
			e.markActivity()
			if err := e.model.AppendAudio(frame.Media.Payload); err != nil {
				e.logger.Errorf("relay %s: forward audio: %v", e.cfg.SessionID, err)
				e.terminate(ctx, eventDisconnect)
				return
			}
		case FrameStart:
			e.setStreamSID(frame.Start.StreamSID)
			e.markActivity()
			if err := e.sessions.Touch(ctx, e.cfg.SessionID); err != nil {
				e.logger.Errorf("relay %s: touch session: %v", e.cfg.SessionID, err)
			}
			e.logger.Infof("relay %s: stream started %s", e.cfg.SessionID, frame.Start.StreamSID)
		case FrameDTMF:
			e.logger.Infof("relay %s: dtmf %q", e.cfg.SessionID, frame.DTMF.Digit)
			if frame.DTMF.Digit == "0" {
				e.requestTransfer(ctx)
				return
			}
		case FrameStop:
			e.terminate(ctx, eventDisconnect)
			return
		case FrameConnected, FrameMark:
			// informational
		default:
			e.logger.Debugf("relay %s: skipping unknown telephony frame", e.cfg.SessionID)
		}
	}
}

// pumpOutbound moves model events toward the telephony stream until the
// socket closes or the call terminates.
func (e *Engine) pumpOutbound(ctx context.Context) {
	for {
		data, err := e.model.Read()
		if err != nil {
			e.logger.Infof("relay %s: model socket closed: %v", e.cfg.SessionID, err)
			e.terminate(ctx, eventDisconnect)
			return
		}

		ev, err := ParseModelEvent(data)
		if err != nil {
			e.logger.Errorf("relay %s: dropping model event: %v", e.cfg.SessionID, err)
			continue
		}

		switch ev.Kind {
		case ModelAudioDelta:
			e.markActivity()
			if err := e.telephony.WriteJSON(MediaFrame(e.currentStreamSID(), ev.Delta)); err != nil {
				e.logger.Errorf("relay %s: forward model audio: %v", e.cfg.SessionID, err)
				e.terminate(ctx, eventDisconnect)
				return
			}
		case ModelSpeechStarted:
			// caller barge-in: stop the in-flight answer and flush queued audio
			e.clearBuffers()
		case ModelFunctionCallDone:
			if done := e.dispatchTool(ctx, ev.FunctionCall); done {
				return
			}
		case ModelSessionUpdated:
			e.logger.Infof("relay %s: session updated", e.cfg.SessionID)
		case ModelError:
			e.logger.Errorf("relay %s: model error event: %s", e.cfg.SessionID, string(ev.Raw))
		default:
			e.logger.Debugf("relay %s: skipping model event %q", e.cfg.SessionID, ev.Type)
		}
	}
}

// dispatchTool executes one completed tool call. It reports whether the
// pump should stop.
func (e *Engine) dispatchTool(ctx context.Context, call *FunctionCall) bool {
	if call == nil {
		return false
	}
	switch call.Name {
	case ToolLookupKnowledge:
		args, err := ParseLookupArguments(call.Arguments)
		if err != nil {
			e.logger.Errorf("relay %s: %s: %v", e.cfg.SessionID, call.Name, err)
			return false
		}
		e.playFiller()

		started := time.Now()
		result := e.resolver.Resolve(ctx, e.cfg.SessionID, args.Query)
		e.logger.Infof("relay %s: knowledge lookup took %s", e.cfg.SessionID, time.Since(started))

		e.clearBuffers()
		if err := e.model.SendFunctionOutput(call.CallID, result); err != nil {
			e.logger.Errorf("relay %s: return tool output: %v", e.cfg.SessionID, err)
			e.terminate(ctx, eventDisconnect)
			return true
		}
		e.markActivity()
		return false
	case ToolTransferToAgent:
		e.logger.Infof("relay %s: caller requested a live agent", e.cfg.SessionID)
		e.requestTransfer(ctx)
		return true
	}
	e.logger.Debugf("relay %s: skipping unknown tool %q", e.cfg.SessionID, call.Name)
	return false
}

// watchdog terminates the call once no audio has moved for the idle
// ceiling.
func (e *Engine) watchdog(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.terminateCh:
			return
		case <-ctx.Done():
			e.terminate(ctx, eventDisconnect)
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, e.lastActivity.Load()))
			if idle > e.cfg.IdleCeiling {
				e.logger.Infof("relay %s: idle for %s, terminating", e.cfg.SessionID, idle)
				e.terminate(ctx, eventTimeout)
				return
			}
		}
	}
}

// requestTransfer marks the session for escalation and terminates. Safe to
// race from both pumps.
func (e *Engine) requestTransfer(ctx context.Context) {
	if err := e.sessions.SetState(ctx, e.cfg.SessionID, session.StateTransferRequested); err != nil {
		e.logger.Errorf("relay %s: set transfer state: %v", e.cfg.SessionID, err)
	}
	e.terminate(ctx, eventTransfer)
}

// clearBuffers cancels the in-flight model response and flushes audio the
// telephony side has queued.
func (e *Engine) clearBuffers() {
	if err := e.model.CancelResponse(); err != nil {
		e.logger.Debugf("relay %s: cancel response: %v", e.cfg.SessionID, err)
	}
	if err := e.telephony.WriteJSON(ClearFrame(e.currentStreamSID())); err != nil {
		e.logger.Debugf("relay %s: clear frame: %v", e.cfg.SessionID, err)
	}
}

func (e *Engine) playFiller() {
	if e.cfg.FillerAudio == "" {
		return
	}
	if err := e.telephony.WriteJSON(MediaFrame(e.currentStreamSID(), e.cfg.FillerAudio)); err != nil {
		e.logger.Debugf("relay %s: filler audio: %v", e.cfg.SessionID, err)
	}
}

// terminate fires the lifecycle transition once and triggers the finalizer.
func (e *Engine) terminate(ctx context.Context, event string) {
	e.terminateOnce.Do(func() {
		e.transition(ctx, event)
		e.mu.Lock()
		e.endState = e.lifecycle.Current()
		e.mu.Unlock()
		close(e.terminateCh)
		e.finalize()
	})
}

// finalize is the idempotent teardown: flush, close both sockets, mark the
// lifecycle closed, and kick off the summary when the stream ever started.
func (e *Engine) finalize() {
	e.finalizeOnce.Do(func() {
		e.clearBuffers()
		if err := e.model.Close(); err != nil {
			e.logger.Debugf("relay %s: close model socket: %v", e.cfg.SessionID, err)
		}
		if err := e.telephony.Close(); err != nil {
			e.logger.Debugf("relay %s: close telephony socket: %v", e.cfg.SessionID, err)
		}
		e.transition(context.Background(), eventClose)

		// an escalated session keeps transfer_requested so the end-stream
		// webhook can still route the caller to an agent
		if e.EndState() != StateTransferring {
			if err := e.sessions.SetState(context.Background(), e.cfg.SessionID, session.StateEnded); err != nil {
				e.logger.Errorf("relay %s: mark session ended: %v", e.cfg.SessionID, err)
			}
		}

		if e.started() && e.summarizer != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				if _, err := e.summarizer.Generate(ctx, e.cfg.SessionID); err != nil {
					e.logger.Errorf("relay %s: summary generation: %v", e.cfg.SessionID, err)
				}
			}()
		}
	})
}

func (e *Engine) transition(ctx context.Context, event string) {
	if err := e.lifecycle.Event(ctx, event); err != nil {
		e.logger.Debugf("relay %s: lifecycle %s from %s: %v", e.cfg.SessionID, event, e.lifecycle.Current(), err)
	}
}

func (e *Engine) markActivity() {
	e.lastActivity.Store(time.Now().UnixNano())
}

func (e *Engine) setStreamSID(sid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streamSID = strings.TrimSpace(sid)
	e.streamStarted = true
}

func (e *Engine) currentStreamSID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamSID
}

func (e *Engine) started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streamStarted
}
