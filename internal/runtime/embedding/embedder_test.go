package embedding

import (
	"testing"

	"github.com/voxbridge/voxbridge/pkg/Logger"
)

func TestOpenAIEmbedderDimensions(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
	}
	for _, tc := range cases {
		e := NewOpenAIEmbedder("key", tc.model, Logger.NewNop())
		if got := e.Dimensions(); got != tc.want {
			t.Errorf("Dimensions() for %q = %d, want %d", tc.model, got, tc.want)
		}
	}
}

func TestGeminiEmbedderDimensions(t *testing.T) {
	e := &GeminiEmbedder{modelName: "text-embedding-004"}
	if got := e.Dimensions(); got != 768 {
		t.Errorf("Dimensions() = %d, want 768", got)
	}
}
