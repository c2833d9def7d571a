// Package assist runs the question pipeline shared by the HTML pages and the
// JSON API: translate, execute, then explain.
package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
)

// ErrNotConfigured is returned when no text-generation credential was
// supplied at startup.
var ErrNotConfigured = errors.New("text generation is not configured")

type Options struct {
	Translator nl2sql.Translator
	Explainer  nl2sql.Explainer
	Engine     query.Engine
	Recorder   history.Recorder
	Logger     *slog.Logger
}

type Service struct {
	translator nl2sql.Translator
	explainer  nl2sql.Explainer
	engine     query.Engine
	recorder   history.Recorder
	logger     *slog.Logger
}

func New(opts Options) (*Service, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		translator: opts.Translator,
		explainer:  opts.Explainer,
		engine:     opts.Engine,
		recorder:   opts.Recorder,
		logger:     logger,
	}, nil
}

// Configured reports whether questions can be translated.
func (s *Service) Configured() bool {
	return s.translator != nil
}

// Outcome carries every step's value and error. A translation failure halts
// the run, so Result and Explanation stay empty in that case.
type Outcome struct {
	Question     string
	Translation  nl2sql.Result
	TranslateErr error
	Result       query.Result
	ExecErr      error
	Explanation  string
	ExplainErr   error
	Duration     time.Duration
	HistoryID    int64
}

func (o Outcome) Halted() bool {
	return o.TranslateErr != nil
}

// ExecutionError returns the typed failure from the executor, if any.
func (o Outcome) ExecutionError() (*query.ExecutionError, bool) {
	var execErr *query.ExecutionError
	if errors.As(o.ExecErr, &execErr) {
		return execErr, true
	}
	return nil, false
}

func (o Outcome) Status() history.Status {
	switch {
	case o.TranslateErr != nil:
		return history.StatusTranslateFailed
	case o.ExecErr != nil:
		if execErr, ok := o.ExecutionError(); ok && execErr.Rejected {
			return history.StatusRejected
		}
		return history.StatusExecuteFailed
	default:
		return history.StatusOK
	}
}

// Ask runs the whole pipeline for one question. The returned error is set
// only when nothing ran: a blank question or a missing translator. Step
// failures are reported on the Outcome.
func (s *Service) Ask(ctx context.Context, question string) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Outcome{}, nl2sql.ErrEmptyQuestion
	}
	if s.translator == nil {
		return Outcome{}, ErrNotConfigured
	}

	start := time.Now()
	outcome := Outcome{Question: question}

	outcome.Translation, outcome.TranslateErr = s.Translate(ctx, question)
	if outcome.TranslateErr == nil {
		outcome.Result, outcome.ExecErr = s.Execute(ctx, outcome.Translation.SQL)
		outcome.Explanation, outcome.ExplainErr = s.Explain(ctx, outcome.Translation.SQL)
	}
	outcome.Duration = time.Since(start)
	outcome.HistoryID = s.record(ctx, outcome)

	s.logger.InfoContext(ctx, "question answered",
		"status", string(outcome.Status()),
		"duration_ms", outcome.Duration.Milliseconds(),
		"rows", len(outcome.Result.Rows),
	)
	return outcome, nil
}

func (s *Service) Translate(ctx context.Context, question string) (nl2sql.Result, error) {
	if s.translator == nil {
		return nl2sql.Result{}, ErrNotConfigured
	}
	start := time.Now()
	result, err := s.translator.Translate(ctx, nl2sql.Request{Question: question})
	if err != nil {
		if !errors.Is(err, nl2sql.ErrEmptyQuestion) {
			observability.ObserveTranslation(observability.OutcomeError, time.Since(start))
			s.logger.WarnContext(ctx, "translation failed", "error", err)
		}
		return nl2sql.Result{}, err
	}
	observability.ObserveTranslation(observability.OutcomeOK, time.Since(start))
	s.logger.DebugContext(ctx, "translated question", "sql", result.SQL, "provider", result.Provider, "model", result.Model)
	return result, nil
}

func (s *Service) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	result, err := s.engine.Execute(ctx, query.Request{SQL: sqlText})
	if err != nil {
		outcome := observability.OutcomeError
		var execErr *query.ExecutionError
		if errors.As(err, &execErr) && execErr.Rejected {
			outcome = observability.OutcomeRejected
		}
		observability.ObserveExecution(outcome, 0)
		s.logger.WarnContext(ctx, "execution failed", "sql", sqlText, "outcome", outcome, "error", err)
		return query.Result{}, err
	}
	observability.ObserveExecution(observability.OutcomeOK, len(result.Rows))
	s.logger.DebugContext(ctx, "executed query", "rows", len(result.Rows), "duration_ms", result.Duration.Milliseconds())
	return result, nil
}

func (s *Service) Explain(ctx context.Context, sqlText string) (string, error) {
	if s.explainer == nil {
		return "", ErrNotConfigured
	}
	start := time.Now()
	explanation, err := s.explainer.Explain(ctx, sqlText)
	if err != nil {
		observability.ObserveExplanation(observability.OutcomeError, time.Since(start))
		s.logger.WarnContext(ctx, "explanation failed", "error", err)
		return "", err
	}
	observability.ObserveExplanation(observability.OutcomeOK, time.Since(start))
	return explanation, nil
}

func (s *Service) record(ctx context.Context, outcome Outcome) int64 {
	if s.recorder == nil {
		return 0
	}
	entry := history.Entry{
		Question:   outcome.Question,
		SQL:        outcome.Translation.SQL,
		Status:     outcome.Status(),
		RowCount:   len(outcome.Result.Rows),
		ExplainOK:  outcome.TranslateErr == nil && outcome.ExplainErr == nil,
		DurationMs: outcome.Duration.Milliseconds(),
	}
	switch {
	case outcome.TranslateErr != nil:
		entry.Error = outcome.TranslateErr.Error()
	case outcome.ExecErr != nil:
		entry.Error = outcome.ExecErr.Error()
	}

	recorded, err := s.recorder.Record(ctx, entry)
	if err != nil {
		s.logger.WarnContext(ctx, "record history failed", "error", err)
		return 0
	}
	return recorded.ID
}
