package engine

import (
	"strings"

	"go.uber.org/zap"
)

// Engine hosts the allocation scoring and conflict detection components. All
// methods are pure functions over caller-owned snapshots: the engine keeps no
// mutable state and may be shared freely across goroutines.
type Engine struct {
	caseInsensitive bool
	logger          *zap.Logger
}

// Option customises engine policies.
type Option func(*Engine)

// WithCaseInsensitiveQualifications makes qualification-to-topic matching
// ignore letter case. The default is case-sensitive exact matching.
func WithCaseInsensitiveQualifications() Option {
	return func(e *Engine) {
		e.caseInsensitive = true
	}
}

// WithLogger attaches a logger used for debug-level tracing only; it never
// affects results.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New constructs an engine instance.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// topicsEqual compares a course topic against a qualification token. Both
// sides are trimmed of surrounding whitespace; case sensitivity follows the
// configured policy.
func (e *Engine) topicsEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if e.caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// qualifiedFor reports whether any qualification token matches the topic.
func (e *Engine) qualifiedFor(qualifications []string, topic string) bool {
	for _, q := range qualifications {
		if e.topicsEqual(q, topic) {
			return true
		}
	}
	return false
}
