// Package sequence decides how a form is walked: which field comes next
// under the form's logic jumps, which fields may be skipped, and which
// fields a (possibly partial) submission must be validated against.
package sequence

import (
	"github.com/formloom/formloom/model"
)

// Skippable reports whether the user may skip a field without answering.
// Required fields and structural kinds (statement, group) must always be
// acknowledged.
func Skippable(f model.Field) bool {
	if f.Required() {
		return false
	}
	return f.Kind != model.KindStatement && f.Kind != model.KindGroup
}

// ResolveNext returns the id of the field to show after fromID, given the
// answers collected so far. A matching jump rule on the current field
// redirects to its target, skipping everything in between; otherwise the
// walk advances sequentially. Returns "" past the last field or when
// fromID is unknown.
func ResolveNext(fields []model.Field, values map[string]model.Answer, fromID string) string {
	idx := indexOf(fields, fromID)
	if idx < 0 {
		return ""
	}

	f := fields[idx]
	if f.Jump != nil && jumpMatches(f, values) {
		if indexOf(fields, f.Jump.Target) >= 0 {
			return f.Jump.Target
		}
	}

	if idx+1 < len(fields) {
		return fields[idx+1].ID
	}
	return ""
}

// TouchedPath walks the form from its first field following answered
// jumps and returns the ids actually reachable, in order. Fields skipped
// over by a triggered jump are excluded.
func TouchedPath(fields []model.Field, values map[string]model.Answer) []string {
	if len(fields) == 0 {
		return nil
	}

	path := []string{}
	seen := map[string]bool{}
	id := fields[0].ID
	for id != "" && !seen[id] {
		seen[id] = true
		path = append(path, id)
		id = ResolveNext(fields, values, id)
	}
	return path
}

// ValidationScope restricts required-field checks: a final submission is
// validated against every field, a partial one only against the fields
// the jump-resolved path touches.
func ValidationScope(fields []model.Field, values map[string]model.Answer, partial bool) []model.Field {
	if !partial {
		return fields
	}

	touched := map[string]bool{}
	for _, id := range TouchedPath(fields, values) {
		touched[id] = true
	}

	scope := make([]model.Field, 0, len(fields))
	for _, f := range fields {
		if touched[f.ID] {
			scope = append(scope, f)
		}
	}
	return scope
}

func jumpMatches(f model.Field, values map[string]model.Answer) bool {
	answer, ok := values[f.ID]
	if !ok {
		return false
	}

	rule := f.Jump
	switch rule.Op {
	case model.JumpEquals:
		return answer.Compare() == rule.Value
	case model.JumpNotEquals:
		return answer.Compare() != rule.Value
	case model.JumpContains:
		return answer.Contains(rule.Value)
	}
	return false
}

func indexOf(fields []model.Field, id string) int {
	for i, f := range fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}
