package relay

import (
	"encoding/json"
	"testing"
)

func TestParseFrameKinds(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind FrameKind
	}{
		{"connected", `{"event":"connected","protocol":"Call"}`, FrameConnected},
		{"start", `{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1","customParameters":{"api_key":"k"}}}`, FrameStart},
		{"media", `{"event":"media","media":{"payload":"b64"}}`, FrameMedia},
		{"dtmf", `{"event":"dtmf","dtmf":{"digit":"0"}}`, FrameDTMF},
		{"mark", `{"event":"mark","mark":{"name":"m1"}}`, FrameMark},
		{"stop", `{"event":"stop"}`, FrameStop},
		{"unknown", `{"event":"somethingelse"}`, FrameUnknown},
	}

	for _, tc := range cases {
		frame, err := ParseFrame([]byte(tc.raw))
		if err != nil {
			t.Errorf("%s: ParseFrame: %v", tc.name, err)
			continue
		}
		if frame.Kind != tc.kind {
			t.Errorf("%s: kind = %v, want %v", tc.name, frame.Kind, tc.kind)
		}
	}
}

func TestParseFramePayloads(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1","customParameters":{"api_key":"k"}}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if frame.Start.StreamSID != "MZ1" || frame.Start.CallSID != "CA1" {
		t.Errorf("start payload = %+v", frame.Start)
	}
	if frame.Start.CustomParameters["api_key"] != "k" {
		t.Errorf("custom parameters = %v", frame.Start.CustomParameters)
	}

	frame, err = ParseFrame([]byte(`{"event":"media","media":{"payload":"qq=="}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if frame.Media.Payload != "qq==" {
		t.Errorf("media payload = %q", frame.Media.Payload)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	if _, err := ParseFrame([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := ParseFrame([]byte(`{"event":"media"}`)); err == nil {
		t.Error("expected error for media frame without payload")
	}
	if _, err := ParseFrame([]byte(`{"event":"start"}`)); err == nil {
		t.Error("expected error for start frame without payload")
	}
}

func TestParseModelEventKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind ModelEventKind
	}{
		{`{"type":"response.audio.delta","delta":"b64"}`, ModelAudioDelta},
		{`{"type":"input_audio_buffer.speech_started"}`, ModelSpeechStarted},
		{`{"type":"response.function_call_arguments.done","name":"lookup_knowledge","call_id":"c1","arguments":"{\"query\":\"q\"}"}`, ModelFunctionCallDone},
		{`{"type":"session.updated"}`, ModelSessionUpdated},
		{`{"type":"error","error":{"message":"boom"}}`, ModelError},
		{`{"type":"response.done"}`, ModelUnknown},
	}

	for _, tc := range cases {
		ev, err := ParseModelEvent([]byte(tc.raw))
		if err != nil {
			t.Errorf("ParseModelEvent(%s): %v", tc.raw, err)
			continue
		}
		if ev.Kind != tc.kind {
			t.Errorf("kind for %s = %v, want %v", tc.raw, ev.Kind, tc.kind)
		}
	}
}

func TestParseModelEventFunctionCall(t *testing.T) {
	ev, err := ParseModelEvent([]byte(`{"type":"response.function_call_arguments.done","name":"lookup_knowledge","call_id":"call_7","arguments":"{\"query\":\"A user asked: hi\"}"}`))
	if err != nil {
		t.Fatalf("ParseModelEvent: %v", err)
	}
	fc := ev.FunctionCall
	if fc == nil {
		t.Fatal("function call payload missing")
	}
	if fc.Name != "lookup_knowledge" || fc.CallID != "call_7" {
		t.Errorf("function call = %+v", fc)
	}

	args, err := ParseLookupArguments(fc.Arguments)
	if err != nil {
		t.Fatalf("ParseLookupArguments: %v", err)
	}
	if args.Query != "A user asked: hi" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseLookupArgumentsMalformed(t *testing.T) {
	if _, err := ParseLookupArguments(`{`); err == nil {
		t.Error("expected error for malformed arguments")
	}
}

func TestOutboundFrames(t *testing.T) {
	data, err := json.Marshal(MediaFrame("MZ1", "payload"))
	if err != nil {
		t.Fatalf("marshal media frame: %v", err)
	}
	want := `{"event":"media","streamSid":"MZ1","media":{"payload":"payload"}}`
	if string(data) != want {
		t.Errorf("media frame = %s, want %s", data, want)
	}

	data, err = json.Marshal(ClearFrame("MZ1"))
	if err != nil {
		t.Fatalf("marshal clear frame: %v", err)
	}
	want = `{"event":"clear","streamSid":"MZ1"}`
	if string(data) != want {
		t.Errorf("clear frame = %s, want %s", data, want)
	}
}
