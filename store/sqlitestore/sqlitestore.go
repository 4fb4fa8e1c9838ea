// Package sqlitestore backs the store interface with an embedded SQLite
// file. Forms and submissions are stored as JSON documents, one row each,
// mirroring the document-store layout; no extra infrastructure needed.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.open")
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite.pragma")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite.migrate")
	}

	return &Store{db: db}, nil
}

func (s *Store) CreateForm(ctx context.Context, form *model.Form) (string, error) {
	if form.ID == "" {
		form.ID = uuid.Must(uuid.NewV4()).String()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	doc, err := json.Marshal(form)
	if err != nil {
		return "", errors.Wrap(err, "sqlite.insert_form.marshal")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form (id, project_id, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		form.ID, form.ProjectID, string(doc), now, now,
	)
	if err != nil {
		return "", errors.Wrap(err, "sqlite.insert_form")
	}
	return form.ID, nil
}

func (s *Store) Form(ctx context.Context, id string) (*model.Form, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM form WHERE id = ?`,
		id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.get_form")
	}

	form := &model.Form{}
	err = json.Unmarshal([]byte(doc), form)
	return form, errors.Wrap(err, "sqlite.get_form.unmarshal")
}

func (s *Store) UpdateForm(ctx context.Context, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite.begin_tx")
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `
		SELECT doc FROM form WHERE id = ?`,
		id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "sqlite.update_form.get")
	}

	doc := map[string]any{}
	err = json.Unmarshal([]byte(raw), &doc)
	if err != nil {
		return errors.Wrap(err, "sqlite.update_form.unmarshal")
	}

	now := time.Now().UTC()
	for k, v := range fields {
		doc[k] = v
	}
	doc["updatedAt"] = now

	merged, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "sqlite.update_form.marshal")
	}

	projectID, _ := doc["projectId"].(string)
	_, err = tx.ExecContext(ctx, `
		UPDATE form
		SET doc = ?, project_id = ?, updated_at = ?
		WHERE id = ?`,
		string(merged), projectID, now, id,
	)
	if err != nil {
		return errors.Wrap(err, "sqlite.update_form")
	}

	return errors.Wrap(tx.Commit(), "sqlite.update_form.commit")
}

func (s *Store) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM form WHERE id = ?`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "sqlite.delete_form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite.delete_form.verify")
	}
	if n < 1 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FormsByProject(ctx context.Context, projectID string) ([]*model.Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM form WHERE project_id = ?
		ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.get_forms")
	}
	defer rows.Close()

	forms := []*model.Form{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "sqlite.get_forms.scan")
		}
		form := &model.Form{}
		if err := json.Unmarshal([]byte(doc), form); err != nil {
			return nil, errors.Wrap(err, "sqlite.get_forms.unmarshal")
		}
		forms = append(forms, form)
	}
	return forms, errors.Wrap(rows.Err(), "sqlite.get_forms.rows")
}

func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.Must(uuid.NewV4()).String()
	}
	sub.CreatedAt = time.Now().UTC()

	doc, err := json.Marshal(sub)
	if err != nil {
		return "", errors.Wrap(err, "sqlite.insert_submission.marshal")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission (id, form_id, doc, created_at)
		VALUES (?, ?, ?, ?)`,
		sub.ID, sub.FormID, string(doc), sub.CreatedAt,
	)
	if err != nil {
		return "", errors.Wrap(err, "sqlite.insert_submission")
	}
	return sub.ID, nil
}

func (s *Store) SubmissionsByForm(ctx context.Context, formID string) ([]*model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM submission WHERE form_id = ?
		ORDER BY created_at`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.get_submissions")
	}
	defer rows.Close()

	subs := []*model.Submission{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "sqlite.get_submissions.scan")
		}
		sub := &model.Submission{}
		if err := json.Unmarshal([]byte(doc), sub); err != nil {
			return nil, errors.Wrap(err, "sqlite.get_submissions.unmarshal")
		}
		subs = append(subs, sub)
	}
	return subs, errors.Wrap(rows.Err(), "sqlite.get_submissions.rows")
}

func (s *Store) AdminPasswordHash(ctx context.Context, username string) ([]byte, error) {
	var hash []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM admin WHERE username = ?`,
		username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return hash, errors.Wrap(err, "sqlite.get_admin")
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
