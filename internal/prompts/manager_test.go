package prompts

import (
	"strings"
	"testing"
)

func TestNewPromptManagerLoadsTemplates(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}
	for _, mode := range []string{ModeQuestions, ModeFeedback} {
		if _, ok := pm.prompts[mode][VariantDefault]; !ok {
			t.Fatalf("expected %s template to be loaded", mode)
		}
	}
}

func TestBuildFeedbackPromptIsDeterministic(t *testing.T) {
	pm, err := NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager returned error: %v", err)
	}
	data := map[string]string{"Question": "What is a goroutine?", "Transcript": "a lightweight thread"}

	first, err := pm.BuildPrompt(ModeFeedback, VariantDefault, data)
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	second, _ := pm.BuildPrompt(ModeFeedback, VariantDefault, data)
	if first != second {
		t.Fatal("expected identical prompts for identical input")
	}
	if !strings.Contains(first, "Question: What is a goroutine?") || !strings.Contains(first, "Answer: a lightweight thread") {
		t.Fatalf("expected question and transcript embedded, got:\n%s", first)
	}
	if !strings.HasPrefix(first, "You are a kind and supportive interview coach.") {
		t.Fatalf("expected base prompt prefix, got:\n%s", first)
	}
}

func TestBuildPromptDoesNotReexpandUserText(t *testing.T) {
	pm, _ := NewPromptManager()
	out, err := pm.BuildPrompt(ModeFeedback, VariantDefault, map[string]string{
		"Question":   "{{.Transcript}}",
		"Transcript": "secret",
	})
	if err != nil {
		t.Fatalf("BuildPrompt returned error: %v", err)
	}
	if !strings.Contains(out, "Question: {{.Transcript}}") {
		t.Fatalf("expected literal placeholder in user text to survive, got:\n%s", out)
	}
}

func TestBuildPromptUnknownMode(t *testing.T) {
	pm, _ := NewPromptManager()
	if _, err := pm.BuildPrompt("missing", VariantDefault, nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := pm.BuildPrompt(ModeFeedback, "verbose", nil); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
