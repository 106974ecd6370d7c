package gemini

import (
	"errors"
	"strings"

	"mockprep/internal/llm"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

type Config struct {
	APIKey string
	Model  string
}

// NewConfig checks the key and fills in the default model.
func NewConfig(s llm.Settings) (*Config, error) {
	key := strings.TrimSpace(s.APIKey)
	if key == "" {
		return nil, errors.New("gemini: GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(s.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Config{APIKey: key, Model: model}, nil
}

func init() {
	llm.Register(ProviderName, New)
}

// New builds a Gemini client from the service's AI settings.
func New(s llm.Settings) (llm.Provider, error) {
	cfg, err := NewConfig(s)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg)
}
