// Package schema checks post front-matter against an embedded CUE schema.
package schema

import (
	"embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// warningFields are front-matter fields whose problems leave a display gap but do not make a
// post unusable.
var warningFields = map[string]bool{
	"title": true,
}

// Issue is a single front-matter problem.
type Issue struct {
	File     string `json:"file"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Validator holds the compiled post schema.
type Validator struct {
	ctx  *cue.Context
	post cue.Value
}

// NewValidator compiles the embedded post schema.
func NewValidator() (*Validator, error) {
	content, err := schemaFS.ReadFile("schemas/post.cue")
	if err != nil {
		return nil, fmt.Errorf("could not read embedded schema: %w", err)
	}

	ctx := cuecontext.New()
	inst := ctx.CompileBytes(content, cue.Filename("post.cue"))
	if err := inst.Err(); err != nil {
		return nil, fmt.Errorf("could not compile post schema: %w", err)
	}

	def := inst.LookupPath(cue.ParsePath("#Post"))
	if !def.Exists() {
		return nil, fmt.Errorf("post schema has no #Post definition")
	}

	return &Validator{ctx: ctx, post: def}, nil
}

// ValidatePost checks one file's front-matter. It returns nil when the data conforms.
func (v *Validator) ValidatePost(file string, data map[string]any) []Issue {
	if data == nil {
		data = map[string]any{}
	}

	value := v.ctx.Encode(data)
	if err := value.Err(); err != nil {
		return []Issue{{
			File:     file,
			Message:  fmt.Sprintf("front-matter cannot be checked: %v", err),
			Severity: SeverityError,
		}}
	}

	unified := v.post.Unify(value)
	err := unified.Err()
	if err == nil {
		err = unified.Validate(cue.Concrete(true))
	}
	if err == nil {
		return nil
	}
	return issuesFromCUE(file, err)
}

func issuesFromCUE(file string, err error) []Issue {
	var issues []Issue
	seen := make(map[string]bool)

	for _, e := range cueerrors.Errors(err) {
		field := fieldName(e.Path())
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)

		key := field + "\x00" + msg
		if seen[key] {
			continue
		}
		seen[key] = true

		severity := SeverityError
		if warningFields[field] {
			severity = SeverityWarning
		}
		if field != "" {
			msg = fmt.Sprintf("%s: %s", field, msg)
		}
		issues = append(issues, Issue{
			File:     file,
			Field:    field,
			Message:  msg,
			Severity: severity,
		})
	}
	return issues
}

// fieldName returns the first regular field in a CUE error path, skipping definitions.
func fieldName(path []string) string {
	for _, p := range path {
		if strings.HasPrefix(p, "#") {
			continue
		}
		return p
	}
	return ""
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
