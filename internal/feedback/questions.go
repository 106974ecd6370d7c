package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockprep/internal/llm"
	"mockprep/internal/models"
	"mockprep/internal/prompts"
	"mockprep/internal/utils"
)

// DefaultQuestionCount is how many questions a new session gets.
const DefaultQuestionCount = 5

// QuestionGenerator produces the fixed question set for a new session.
type QuestionGenerator struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	logger   *zap.Logger
	count    int
}

func NewQuestionGenerator(provider llm.Provider, promptManager prompts.PromptProvider, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{provider: provider, prompts: promptManager, logger: logger, count: DefaultQuestionCount}
}

// GenerateQuestions returns an ordered list of question/answer pairs. Malformed model output
// is reported as ErrInvalidAIResponse, provider failures as ErrTransient.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, role, description, experience string) ([]models.QuestionPair, error) {
	prompt, err := g.prompts.BuildPrompt(prompts.ModeQuestions, prompts.VariantDefault, map[string]string{
		"Count":           strconv.Itoa(g.count),
		"JobPosition":     role,
		"JobDescription":  description,
		"ExperienceYears": experience,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransient, err)
	}

	requestID := uuid.New().String()
	resp, err := g.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		g.logger.Warn("question generation failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrTransient, err)
	}

	questions, err := ParseQuestions(resp.Content)
	if err != nil {
		g.logger.Warn("question response rejected", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	g.logger.Info("questions generated", zap.String("request_id", requestID), zap.Int("count", len(questions)))
	return questions, nil
}

// ParseQuestions decodes a JSON array of {question, answer} objects.
func ParseQuestions(raw string) ([]models.QuestionPair, error) {
	var items []models.QuestionPair
	if err := json.Unmarshal([]byte(utils.StripFences(raw)), &items); err != nil {
		return nil, invalid("questions are not a JSON array: %v", err)
	}
	if len(items) == 0 {
		return nil, invalid("no questions returned")
	}
	for i := range items {
		items[i].Question = strings.TrimSpace(items[i].Question)
		items[i].Answer = strings.TrimSpace(items[i].Answer)
		if items[i].Question == "" {
			return nil, invalid("question %d is empty", i)
		}
	}
	return items, nil
}
