package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/config"
)

func TestTranslateCleansModelOutput(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"```sql\nSELECT * FROM Naresh_it_employee1 ORDER BY employee_salary DESC LIMIT 1;\n```"}}
	assistant := newTestAssistant(t, completer)

	result, err := assistant.Translate(context.Background(), Request{Question: "Who earns the highest salary?"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT * FROM Naresh_it_employee1 ORDER BY employee_salary DESC LIMIT 1" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Provider != "fake" || result.Model != "fake-model" {
		t.Fatalf("provider/model = %q/%q", result.Provider, result.Model)
	}
	if len(completer.requests) != 1 {
		t.Fatalf("requests = %d", len(completer.requests))
	}
	req := completer.requests[0]
	if req.Input != "Who earns the highest salary?" {
		t.Fatalf("Input = %q", req.Input)
	}
	if !strings.Contains(req.Instruction, "Naresh_it_employee1") {
		t.Fatalf("Instruction = %q", req.Instruction)
	}
}

func TestTranslateRejectsBlankQuestionWithoutCalling(t *testing.T) {
	completer := &fakeCompleter{}
	assistant := newTestAssistant(t, completer)

	_, err := assistant.Translate(context.Background(), Request{Question: " \t\n"})
	if !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("Translate() error = %v, want ErrEmptyQuestion", err)
	}
	if len(completer.requests) != 0 {
		t.Fatalf("requests = %d, want 0", len(completer.requests))
	}
}

func TestTranslateWrapsCompleterFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	assistant := newTestAssistant(t, &fakeCompleter{err: cause})

	_, err := assistant.Translate(context.Background(), Request{Question: "anything"})
	if !errors.Is(err, cause) {
		t.Fatalf("Translate() error = %v, want wrapped cause", err)
	}
}

func TestTranslateRejectsEmptySQL(t *testing.T) {
	assistant := newTestAssistant(t, &fakeCompleter{responses: []string{"```sql\n;\n```"}})
	if _, err := assistant.Translate(context.Background(), Request{Question: "q"}); err == nil {
		t.Fatal("expected error for empty SQL")
	}
}

func TestExplainUsesExplainPrompt(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"  Step 1: read the table.  "}}
	assistant := newTestAssistant(t, completer)

	got, err := assistant.Explain(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if got != "Step 1: read the table." {
		t.Fatalf("Explain() = %q", got)
	}
	req := completer.requests[0]
	if req.Instruction != "" || req.Input != ExplainPrompt("SELECT 1") {
		t.Fatalf("request = %#v", req)
	}
}

func TestExplainWrapsFailure(t *testing.T) {
	cause := errors.New("network down")
	assistant := newTestAssistant(t, &fakeCompleter{err: cause})
	if _, err := assistant.Explain(context.Background(), "SELECT 1"); !errors.Is(err, cause) {
		t.Fatalf("Explain() error = %v", err)
	}
}

func TestNewAssistantFromConfigPicksProvider(t *testing.T) {
	assistant, err := NewAssistantFromConfig(config.AIConfig{
		Provider: config.ProviderOpenAI,
		BaseURL:  "http://localhost",
		APIKey:   "k",
	}, "t")
	if err != nil {
		t.Fatalf("NewAssistantFromConfig() error = %v", err)
	}
	if assistant.completer.Provider() != "openai-compatible" {
		t.Fatalf("provider = %q", assistant.completer.Provider())
	}

	assistant, err = NewAssistantFromConfig(config.AIConfig{
		Provider: config.ProviderGemini,
		BaseURL:  "http://localhost",
		APIKey:   "k",
	}, "t")
	if err != nil {
		t.Fatalf("NewAssistantFromConfig() error = %v", err)
	}
	if assistant.completer.Provider() != "gemini" {
		t.Fatalf("provider = %q", assistant.completer.Provider())
	}

	if _, err := NewAssistantFromConfig(config.AIConfig{Provider: "eliza", BaseURL: "http://x", APIKey: "k"}, "t"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := NewAssistantFromConfig(config.AIConfig{Provider: config.ProviderGemini, BaseURL: "http://x"}, "t"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

type fakeCompleter struct {
	requests  []CompletionRequest
	responses []string
	err       error
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeCompleter) Provider() string { return "fake" }

func (f *fakeCompleter) Model() string { return "fake-model" }

func newTestAssistant(t *testing.T, completer Completer) *Assistant {
	t.Helper()
	assistant, err := NewAssistant(completer, "Naresh_it_employee1")
	if err != nil {
		t.Fatalf("NewAssistant() error = %v", err)
	}
	return assistant
}
