// Package storetest provides an in-memory store for tests.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store"
)

type Memory struct {
	mu          sync.Mutex
	forms       map[string]*model.Form
	submissions map[string]*model.Submission
	admins      map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		forms:       map[string]*model.Form{},
		submissions: map[string]*model.Submission{},
		admins:      map[string][]byte{},
	}
}

func (m *Memory) SetAdmin(username string, passwordHash []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[username] = passwordHash
}

func (m *Memory) CreateForm(_ context.Context, form *model.Form) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if form.ID == "" {
		form.ID = uuid.Must(uuid.NewV4()).String()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	clone := *form
	m.forms[form.ID] = &clone
	return form.ID, nil
}

func (m *Memory) Form(_ context.Context, id string) (*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	form, ok := m.forms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *form
	return &clone, nil
}

func (m *Memory) UpdateForm(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	form, ok := m.forms[id]
	if !ok {
		return store.ErrNotFound
	}
	if name, ok := fields["name"].(string); ok {
		form.Name = name
	}
	if projectID, ok := fields["projectId"].(string); ok {
		form.ProjectID = projectID
	}
	form.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) DeleteForm(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.forms, id)
	return nil
}

func (m *Memory) FormsByProject(_ context.Context, projectID string) ([]*model.Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	forms := []*model.Form{}
	for _, form := range m.forms {
		if form.ProjectID == projectID {
			clone := *form
			forms = append(forms, &clone)
		}
	}
	return forms, nil
}

func (m *Memory) CreateSubmission(_ context.Context, sub *model.Submission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.Must(uuid.NewV4()).String()
	}
	sub.CreatedAt = time.Now().UTC()

	clone := *sub
	m.submissions[sub.ID] = &clone
	return sub.ID, nil
}

func (m *Memory) SubmissionsByForm(_ context.Context, formID string) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := []*model.Submission{}
	for _, sub := range m.submissions {
		if sub.FormID == formID {
			clone := *sub
			subs = append(subs, &clone)
		}
	}
	return subs, nil
}

func (m *Memory) AdminPasswordHash(_ context.Context, username string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, ok := m.admins[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return hash, nil
}

func (m *Memory) Close(context.Context) error { return nil }
