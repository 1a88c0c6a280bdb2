// Package conversion holds the types shared by every parse and serialize
// call: issues, results, hints and the dedicated failure types.
package conversion

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when a parser or serializer has no registry bound.
var ErrNotConfigured = errors.New("converter not configured: no token registry bound")

// IssueKind classifies a non-fatal parse problem.
type IssueKind string

const (
	SyntaxError  IssueKind = "SYNTAX_ERROR"
	MissingData  IssueKind = "MISSING_DATA"
	LogicalError IssueKind = "LOGICAL_ERROR"
	Other        IssueKind = "OTHER"
)

// Issue is one diagnostic collected while parsing. Index is the lexeme
// position it refers to, or -1 when it concerns the report as a whole.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
	Token   string    `json:"token,omitempty"`
	Index   int       `json:"index"`
}

func (i Issue) String() string {
	if i.Token != "" {
		return fmt.Sprintf("%s: %s (%q at %d)", i.Kind, i.Message, i.Token, i.Index)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Issues is an ordered issue list.
type Issues []Issue

// OfKind returns the issues of kind k.
func (is Issues) OfKind(k IssueKind) Issues {
	var out Issues
	for _, i := range is {
		if i.Kind == k {
			out = append(out, i)
		}
	}
	return out
}

func (is Issues) String() string {
	parts := make([]string, len(is))
	for n, i := range is {
		parts[n] = i.String()
	}
	return strings.Join(parts, "; ")
}

// Status summarises a Result.
type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusWithIssues Status = "WITH_ISSUES"
	StatusFail       Status = "FAIL"
)

// Result is a parsed report plus the issues found on the way. Report is
// always set, possibly partially filled. Failed marks input that is not a
// report of the expected kind at all.
type Result[T any] struct {
	Report T      `json:"report"`
	Issues Issues `json:"issues,omitempty"`
	Failed bool   `json:"failed,omitempty"`
}

// Status is FAIL for failed input, SUCCESS without issues, WITH_ISSUES otherwise.
func (r *Result[T]) Status() Status {
	switch {
	case r.Failed:
		return StatusFail
	case len(r.Issues) == 0:
		return StatusSuccess
	}
	return StatusWithIssues
}

// Add appends an issue.
func (r *Result[T]) Add(kind IssueKind, msg string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Message: msg, Index: -1})
}
