// Package submit assembles submission payloads and writes them through
// the persistence adapter. Inputs are assumed pre-validated; every call
// creates exactly one new record.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store"
)

type Service struct {
	Store store.Store
}

// Payload is one complete or partial submission, ready to persist.
type Payload struct {
	FormID        string
	Answers       map[string]model.Answer
	HiddenFields  []model.HiddenFieldAnswer
	OpenToken     string
	PasswordToken string
	Partial       bool
}

// OpenToken is issued when a form is opened and echoed back on submit to
// tie the two together.
func OpenToken(formID string) string {
	return fmt.Sprintf("open_%s_%d", formID, time.Now().UnixMilli())
}

// Complete persists the payload as a new submission and returns its id.
func (s *Service) Complete(ctx context.Context, p Payload) (string, error) {
	sub := &model.Submission{
		FormID:        p.FormID,
		Answers:       p.Answers,
		HiddenFields:  p.HiddenFields,
		OpenToken:     p.OpenToken,
		PasswordToken: p.PasswordToken,
		Partial:       p.Partial,
	}
	return s.Store.CreateSubmission(ctx, sub)
}
