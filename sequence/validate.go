package sequence

import (
	"fmt"

	"github.com/formloom/formloom/model"
)

// FieldError identifies the field an answer set fails on, so the renderer
// can scroll to and highlight it instead of showing a generic error.
type FieldError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.FieldID, e.Message)
}

// Validate checks the answers against the given validation scope. It also
// rejects any answer keyed by a field id absent from the full sequence,
// keeping submission payloads inside the form's schema.
func Validate(fields []model.Field, scope []model.Field, values map[string]model.Answer) error {
	known := map[string]model.Field{}
	for _, f := range fields {
		known[f.ID] = f
	}
	for id := range values {
		if _, ok := known[id]; !ok {
			return &FieldError{FieldID: id, Message: "unknown field"}
		}
	}

	for _, f := range scope {
		answer, ok := values[f.ID]
		if !ok || answer.IsZero() {
			if f.Required() {
				return &FieldError{FieldID: f.ID, Message: "this field is required"}
			}
			continue
		}
		if err := validateAnswer(f, answer); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(f model.Field, a model.Answer) error {
	v := f.Validations
	if v == nil {
		return nil
	}

	switch f.Kind {
	case model.KindText, model.KindLongText:
		if v.MaxLength > 0 && len(a.Text) > v.MaxLength {
			return &FieldError{FieldID: f.ID, Message: fmt.Sprintf("answer exceeds %d characters", v.MaxLength)}
		}
	case model.KindNumber:
		if a.Number == nil {
			return &FieldError{FieldID: f.ID, Message: "a number is required"}
		}
		if v.Min != nil && *a.Number < *v.Min {
			return &FieldError{FieldID: f.ID, Message: fmt.Sprintf("answer must be at least %v", *v.Min)}
		}
		if v.Max != nil && *a.Number > *v.Max {
			return &FieldError{FieldID: f.ID, Message: fmt.Sprintf("answer must be at most %v", *v.Max)}
		}
	case model.KindChoice:
		if f.Properties != nil && len(f.Properties.Choices) > 0 {
			valid := map[string]bool{}
			for _, c := range f.Properties.Choices {
				valid[c] = true
			}
			for _, c := range a.Choices {
				if !valid[c] {
					return &FieldError{FieldID: f.ID, Message: "not one of the available choices"}
				}
			}
		}
	}
	return nil
}
