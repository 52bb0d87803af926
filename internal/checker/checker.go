// Package checker provides the plagiarism and grammar analysis capability.
// The bundled implementation is a placeholder that reports a fixed summary;
// a real analysis service plugs in behind the same interface.
package checker

import (
	"context"
	"fmt"

	"digithesis/internal/model"
)

// Analyzer runs a check on a thesis and returns human-readable result text.
type Analyzer interface {
	CheckPlagiarism(ctx context.Context, thesis *model.Thesis) (string, error)
	CheckGrammar(ctx context.Context, thesis *model.Thesis) (string, error)
}

// Simulated returns canned results without inspecting the document.
type Simulated struct{}

// NewSimulated creates the placeholder analyzer.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// CheckPlagiarism implements Analyzer.
func (Simulated) CheckPlagiarism(ctx context.Context, thesis *model.Thesis) (string, error) {
	return fmt.Sprintf("Simulated plagiarism check for %q: no matching sources found.", thesis.Title), nil
}

// CheckGrammar implements Analyzer.
func (Simulated) CheckGrammar(ctx context.Context, thesis *model.Thesis) (string, error) {
	return fmt.Sprintf("Simulated grammar check for %q: no issues detected.", thesis.Title), nil
}
