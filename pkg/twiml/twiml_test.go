package twiml

import (
	"strings"
	"testing"
)

func TestRenderStreamResponse(t *testing.T) {
	r := NewResponse().
		Pause(1).
		ConnectStream("wss://example.com/media-stream/session/abc",
			Parameter{Name: "api_key", Value: "sk-test"}).
		Redirect("https://example.com/end-stream/abc")

	out, err := r.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("missing XML declaration")
	}
	for _, want := range []string{
		`<Pause length="1">`,
		`<Stream url="wss://example.com/media-stream/session/abc">`,
		`<Parameter name="api_key" value="sk-test">`,
		`<Redirect>https://example.com/end-stream/abc</Redirect>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDial(t *testing.T) {
	out, err := NewResponse().DialNumber("+15550001111").Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<Dial><Number>+15550001111</Number></Dial>") {
		t.Errorf("unexpected dial markup: %s", out)
	}
}

func TestRenderHangup(t *testing.T) {
	out, err := NewResponse().Hangup().Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Errorf("unexpected hangup markup: %s", out)
	}
}
