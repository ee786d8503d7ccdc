// Package attendance implements the face-matching and attendance
// reconciliation engine: matching a probe encoding against the roster,
// resolving today's exam for the matched student's course, and recording the
// present/absent ledger entries.
package attendance

import (
	"context"
	"fmt"

	"github.com/classtrack/classtrack/internal/store"
)

// Engine wires the matcher, exam resolver and reconciler into the single
// probe-to-ledger operation used by the HTTP and CLI frontends.
type Engine struct {
	matcher    *Matcher
	resolver   *ExamResolver
	reconciler *Reconciler
}

// NewEngine assembles an engine from its three stages.
func NewEngine(matcher *Matcher, resolver *ExamResolver, reconciler *Reconciler) *Engine {
	return &Engine{matcher: matcher, resolver: resolver, reconciler: reconciler}
}

// MarkByProbe runs the full pipeline for one captured face encoding:
// roster match, exam resolution, idempotent presence recording and the
// course-wide absence sweep. Domain outcomes (NoFaceMatchError,
// NoExamScheduledError, MalformedEncodingError) are returned as typed errors;
// an already-marked student is a successful result with AlreadyMarked set.
func (e *Engine) MarkByProbe(ctx context.Context, probe []float32) (*MarkResult, error) {
	match, err := e.matcher.Match(ctx, probe)
	if err != nil {
		return nil, err
	}

	exam, err := e.resolver.ResolveToday(ctx, match.Student.Course)
	if err != nil {
		return nil, err
	}

	result, err := e.reconciler.Mark(ctx, match.Student, exam)
	if err != nil {
		return nil, fmt.Errorf("reconciling attendance for %s: %w", match.Student.StudentID, err)
	}
	return result, nil
}

// Match exposes the matcher stage for callers that only need identification.
func (e *Engine) Match(ctx context.Context, probe []float32) (*Match, error) {
	return e.matcher.Match(ctx, probe)
}

// ResolveToday exposes the exam resolution stage.
func (e *Engine) ResolveToday(ctx context.Context, courseID string) (*store.Exam, error) {
	return e.resolver.ResolveToday(ctx, courseID)
}
