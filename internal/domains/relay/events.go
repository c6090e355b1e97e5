package relay

import (
	"encoding/json"
	"fmt"
)

// FrameKind tags a frame read from the telephony media stream.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameConnected
	FrameStart
	FrameMedia
	FrameDTMF
	FrameMark
	FrameStop
)

func (k FrameKind) String() string {
	switch k {
	case FrameConnected:
		return "connected"
	case FrameStart:
		return "start"
	case FrameMedia:
		return "media"
	case FrameDTMF:
		return "dtmf"
	case FrameMark:
		return "mark"
	case FrameStop:
		return "stop"
	}
	return "unknown"
}

type StartPayload struct {
	StreamSID        string            `json:"streamSid"`
	CallSID          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type MediaPayload struct {
	Payload string `json:"payload"`
}

type DTMFPayload struct {
	Digit string `json:"digit"`
}

type MarkPayload struct {
	Name string `json:"name"`
}

// Frame is one parsed telephony event. Exactly the payload matching Kind
// is non-nil.
type Frame struct {
	Kind  FrameKind
	Start *StartPayload
	Media *MediaPayload
	DTMF  *DTMFPayload
	Mark  *MarkPayload
}

type frameEnvelope struct {
	Event string        `json:"event"`
	Start *StartPayload `json:"start"`
	Media *MediaPayload `json:"media"`
	DTMF  *DTMFPayload  `json:"dtmf"`
	Mark  *MarkPayload  `json:"mark"`
}

// ParseFrame decodes one telephony frame. Unrecognized event names yield
// FrameUnknown with a nil payload rather than an error.
func ParseFrame(data []byte) (Frame, error) {
	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("malformed telephony frame: %w", err)
	}

	switch env.Event {
	case "connected":
		return Frame{Kind: FrameConnected}, nil
	case "start":
		if env.Start == nil {
			return Frame{}, fmt.Errorf("start frame without start payload")
		}
		return Frame{Kind: FrameStart, Start: env.Start}, nil
	case "media":
		if env.Media == nil {
			return Frame{}, fmt.Errorf("media frame without media payload")
		}
		return Frame{Kind: FrameMedia, Media: env.Media}, nil
	case "dtmf":
		if env.DTMF == nil {
			return Frame{}, fmt.Errorf("dtmf frame without dtmf payload")
		}
		return Frame{Kind: FrameDTMF, DTMF: env.DTMF}, nil
	case "mark":
		return Frame{Kind: FrameMark, Mark: env.Mark}, nil
	case "stop":
		return Frame{Kind: FrameStop}, nil
	}
	return Frame{Kind: FrameUnknown}, nil
}

// outbound telephony frames

type outMediaFrame struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

type outClearFrame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

// MediaFrame builds an audio frame carrying a base64 payload back to the
// telephony stream.
func MediaFrame(streamSID, payload string) any {
	return outMediaFrame{Event: "media", StreamSID: streamSID, Media: MediaPayload{Payload: payload}}
}

// ClearFrame tells the telephony stream to drop any buffered audio.
func ClearFrame(streamSID string) any {
	return outClearFrame{Event: "clear", StreamSID: streamSID}
}

// ModelEventKind tags an event read from the realtime model socket.
type ModelEventKind int

const (
	ModelUnknown ModelEventKind = iota
	ModelAudioDelta
	ModelSpeechStarted
	ModelFunctionCallDone
	ModelSessionUpdated
	ModelError
)

// FunctionCall is a completed tool invocation from the model.
type FunctionCall struct {
	Name      string
	CallID    string
	Arguments string // raw JSON
}

// ModelEvent is one parsed realtime event. Type keeps the wire name for
// logging; payload fields are set per Kind.
type ModelEvent struct {
	Kind         ModelEventKind
	Type         string
	Delta        string
	FunctionCall *FunctionCall
	Raw          json.RawMessage
}

type modelEnvelope struct {
	Type      string `json:"type"`
	Delta     string `json:"delta"`
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`
}

// ParseModelEvent decodes one realtime model event. Event types the engine
// has no handling for come back as ModelUnknown and are logged and skipped.
func ParseModelEvent(data []byte) (ModelEvent, error) {
	var env modelEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ModelEvent{}, fmt.Errorf("malformed model event: %w", err)
	}

	ev := ModelEvent{Type: env.Type, Raw: data}
	switch env.Type {
	case "response.audio.delta":
		ev.Kind = ModelAudioDelta
		ev.Delta = env.Delta
	case "input_audio_buffer.speech_started":
		ev.Kind = ModelSpeechStarted
	case "response.function_call_arguments.done":
		ev.Kind = ModelFunctionCallDone
		ev.FunctionCall = &FunctionCall{
			Name:      env.Name,
			CallID:    env.CallID,
			Arguments: env.Arguments,
		}
	case "session.updated":
		ev.Kind = ModelSessionUpdated
	case "error":
		ev.Kind = ModelError
	default:
		ev.Kind = ModelUnknown
	}
	return ev, nil
}

// LookupArguments is the expected argument shape of the knowledge tool.
type LookupArguments struct {
	Query string `json:"query"`
}

// ParseLookupArguments decodes the knowledge tool's JSON arguments.
func ParseLookupArguments(raw string) (LookupArguments, error) {
	var args LookupArguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return LookupArguments{}, fmt.Errorf("malformed tool arguments: %w", err)
	}
	return args, nil
}
