package nl2sql

import (
	"context"
	"errors"
)

var ErrEmptyQuestion = errors.New("question is required")

type Request struct {
	Question string `json:"question"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

type Explainer interface {
	Explain(ctx context.Context, sql string) (string, error)
}

// CompletionRequest is one call to a text-generation service. Instruction is
// the fixed framing text and Input the caller-supplied part; providers decide
// how to place them in their own wire format.
type CompletionRequest struct {
	Instruction string
	Input       string
}

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
	Model() string
}
