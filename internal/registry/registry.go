// Package registry holds the TAC token rules: a priority-ordered list of
// classifiers that assign identities to raw tokens and a map of
// reconstructors that turn report fields back into tokens.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tac_codec/internal/lexeme"
)

// ErrNoReconstructor is returned when no reconstructor is bound to an identity.
var ErrNoReconstructor = errors.New("no reconstructor registered")

// Classifier is implemented by each token rule.
type Classifier interface {
	// Name returns the classifier's unique identifier.
	Name() string

	// Identity is the identity this classifier assigns.
	Identity() lexeme.Identity

	// Priority determines application order. Lower number = tried first.
	Priority() int

	// QuickCheck performs a fast string check on the upper-cased token
	// before the context predicate and pattern are evaluated.
	// False = definitely skip.
	QuickCheck(token string) bool

	// Classify evaluates the context predicate and pattern. ok is false when
	// the rule does not apply; the next classifier is then tried.
	Classify(ctx *Context) (c lexeme.Classification, ok bool)
}

// Reconstructor renders one identity's tokens from a report.
type Reconstructor interface {
	Identity() lexeme.Identity

	// Reconstruct returns zero or more lexemes, or a
	// *conversion.SerializationError when the report cannot be written.
	Reconstruct(ctx *ReconstructContext) ([]*lexeme.Lexeme, error)
}

// Registry holds classifiers sorted by priority and reconstructors by identity.
type Registry struct {
	mu sync.RWMutex

	classifiers    []Classifier
	reconstructors map[lexeme.Identity]Reconstructor

	// sorted tracks whether classifiers have been sorted since the last Register
	sorted bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		reconstructors: make(map[lexeme.Identity]Reconstructor),
	}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a classifier to the default registry.
// Called during init() in the tokens package.
func Register(c Classifier) {
	defaultRegistry.Register(c)
}

// RegisterReconstructor adds a reconstructor to the default registry.
func RegisterReconstructor(r Reconstructor) {
	defaultRegistry.RegisterReconstructor(r)
}

// Register adds a classifier.
func (r *Registry) Register(c Classifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers = append(r.classifiers, c)
	r.sorted = false
}

// RegisterReconstructor binds a reconstructor to its identity, replacing
// any earlier one.
func (r *Registry) RegisterReconstructor(rc Reconstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconstructors[rc.Identity()] = rc
}

// Sort orders classifiers by priority. Equal priorities keep registration
// order. Classify sorts lazily, so calling Sort is optional.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sortLocked()
}

func (r *Registry) sortLocked() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.classifiers, func(i, j int) bool {
		return r.classifiers[i].Priority() < r.classifiers[j].Priority()
	})
	r.sorted = true
}

func (r *Registry) ensureSorted() {
	r.mu.RLock()
	sorted := r.sorted
	r.mu.RUnlock()
	if !sorted {
		r.Sort()
	}
}

// Classify applies classifiers in priority order; the first one that
// applies wins. It returns the classifier name, or "" and an unrecognized
// classification when none applies.
func (r *Registry) Classify(ctx *Context) (lexeme.Classification, string) {
	r.ensureSorted()
	r.mu.RLock()
	defer r.mu.RUnlock()

	token := strings.ToUpper(ctx.Token())
	for _, c := range r.classifiers {
		if !c.QuickCheck(token) {
			continue
		}
		if res, ok := c.Classify(ctx); ok {
			return res, c.Name()
		}
	}
	return lexeme.Classification{}, ""
}

// ClassifyWithTrace is Classify that also records every attempt.
func (r *Registry) ClassifyWithTrace(ctx *Context) (lexeme.Classification, *TokenTrace) {
	r.ensureSorted()
	r.mu.RLock()
	defer r.mu.RUnlock()

	token := strings.ToUpper(ctx.Token())
	trace := &TokenTrace{Index: ctx.Index(), Token: ctx.Token()}
	for _, c := range r.classifiers {
		att := Attempt{Classifier: c.Name(), Identity: c.Identity(), Priority: c.Priority()}
		att.QuickCheck = c.QuickCheck(token)
		if !att.QuickCheck {
			trace.Attempts = append(trace.Attempts, att)
			continue
		}
		res, ok := c.Classify(ctx)
		att.Matched = ok
		trace.Attempts = append(trace.Attempts, att)
		if ok {
			trace.Winner = c.Name()
			trace.Identity = res.Identity
			trace.Status = res.Status
			trace.Certainty = res.Certainty
			return res, trace
		}
	}
	return lexeme.Classification{}, trace
}

// Reconstructor returns the reconstructor bound to id.
func (r *Registry) Reconstructor(id lexeme.Identity) (Reconstructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.reconstructors[id]
	return rc, ok
}

// Reconstruct runs the reconstructor bound to id.
func (r *Registry) Reconstruct(id lexeme.Identity, ctx *ReconstructContext) ([]*lexeme.Lexeme, error) {
	rc, ok := r.Reconstructor(id)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoReconstructor, id)
	}
	return rc.Reconstruct(ctx)
}

// Classifiers returns the classifiers in application order.
func (r *Registry) Classifiers() []Classifier {
	r.ensureSorted()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Classifier(nil), r.classifiers...)
}

// ClassifierCount returns the number of registered classifiers.
func (r *Registry) ClassifierCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classifiers)
}

// ReconstructedIdentities lists identities with a reconstructor, in identity order.
func (r *Registry) ReconstructedIdentities() []lexeme.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]lexeme.Identity, 0, len(r.reconstructors))
	for id := range r.reconstructors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
