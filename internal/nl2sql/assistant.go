package nl2sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/config"
)

// Assistant translates questions to SQL and explains SQL using one Completer.
// It satisfies both Translator and Explainer.
type Assistant struct {
	completer Completer
	table     string
}

func NewAssistant(completer Completer, table string) (*Assistant, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("table is required")
	}
	return &Assistant{completer: completer, table: table}, nil
}

// NewAssistantFromConfig builds the provider named by cfg.Provider.
func NewAssistantFromConfig(cfg config.AIConfig, table string) (*Assistant, error) {
	var (
		completer Completer
		err       error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		completer, err = NewOpenAICompleter(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	case config.ProviderGemini, "":
		completer, err = NewGeminiCompleter(GeminiConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewAssistant(completer, table)
}

func (a *Assistant) Translate(ctx context.Context, req Request) (Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Result{}, ErrEmptyQuestion
	}

	raw, err := a.completer.Complete(ctx, CompletionRequest{
		Instruction: TranslatePrompt(a.table),
		Input:       question,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate sql: %w", err)
	}

	sql := CleanSQL(raw)
	if sql == "" {
		return Result{}, fmt.Errorf("model returned empty SQL")
	}
	return Result{
		SQL:      sql,
		Provider: a.completer.Provider(),
		Model:    a.completer.Model(),
	}, nil
}

func (a *Assistant) Explain(ctx context.Context, sql string) (string, error) {
	raw, err := a.completer.Complete(ctx, CompletionRequest{Input: ExplainPrompt(sql)})
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	explanation := strings.TrimSpace(raw)
	if explanation == "" {
		return "", fmt.Errorf("model returned empty explanation")
	}
	return explanation, nil
}
