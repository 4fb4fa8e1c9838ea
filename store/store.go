// Package store defines the persistence adapter the rest of the service
// talks to. One backend is selected at startup from configuration; see
// mongostore and sqlitestore.
package store

import (
	"context"
	"errors"

	"github.com/formloom/formloom/model"
)

// ErrNotFound is returned when a requested form or record is absent.
var ErrNotFound = errors.New("form not found")

type Store interface {
	// CreateForm stores a new form, generating an id when the form has
	// none, and stamps created/updated timestamps. Returns the id.
	CreateForm(ctx context.Context, form *model.Form) (string, error)

	// Form fetches a form by id; ErrNotFound when absent.
	Form(ctx context.Context, id string) (*model.Form, error)

	// UpdateForm applies a partial update and stamps the updated
	// timestamp. Fields maps document field names to new values.
	UpdateForm(ctx context.Context, id string, fields map[string]any) error

	DeleteForm(ctx context.Context, id string) error

	// FormsByProject lists the forms whose projectId equals projectID.
	FormsByProject(ctx context.Context, projectID string) ([]*model.Form, error)

	// CreateSubmission stores a new submission record. Submissions are
	// never updated after creation.
	CreateSubmission(ctx context.Context, sub *model.Submission) (string, error)

	SubmissionsByForm(ctx context.Context, formID string) ([]*model.Submission, error)

	// AdminPasswordHash returns the bcrypt hash for an admin user, for
	// the login flow.
	AdminPasswordHash(ctx context.Context, username string) ([]byte, error)

	Close(ctx context.Context) error
}
