package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store"
	"github.com/formloom/formloom/store/sqlitestore"
)

func openStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	st, err := sqlitestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(context.Background()) })
	return st
}

func TestFormRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	form := &model.Form{
		ProjectID: "p1",
		Name:      "Feedback",
		Fields: []model.Field{
			{
				ID: "rating", Kind: model.KindNumber,
				Validations: &model.Validations{Required: true},
			},
			{
				ID: "topic", Kind: model.KindChoice,
				Properties: &model.Properties{Choices: []string{"ui", "speed"}},
				Jump:       &model.JumpRule{Op: model.JumpEquals, Value: "ui", Target: "rating"},
			},
		},
		Settings: model.Settings{CaptchaKind: model.CaptchaToken},
	}

	id, err := st.CreateForm(ctx, form)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.False(t, form.CreatedAt.IsZero())
	assert.False(t, form.UpdatedAt.IsZero())

	got, err := st.Form(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Feedback", got.Name)
	assert.Equal(t, form.Fields, got.Fields)
	assert.Equal(t, model.CaptchaToken, got.Settings.CaptchaKind)
}

func TestFormMissing(t *testing.T) {
	st := openStore(t)

	_, err := st.Form(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateForm(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	id, err := st.CreateForm(ctx, &model.Form{ProjectID: "p1", Name: "Old"})
	require.NoError(t, err)

	err = st.UpdateForm(ctx, id, map[string]any{"name": "New"})
	require.NoError(t, err)

	got, err := st.Form(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "p1", got.ProjectID)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	err = st.UpdateForm(ctx, "nope", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteForm(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	id, err := st.CreateForm(ctx, &model.Form{Name: "Gone"})
	require.NoError(t, err)

	require.NoError(t, st.DeleteForm(ctx, id))

	_, err = st.Form(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteForm(ctx, id), store.ErrNotFound)
}

func TestFormsByProject(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	_, err := st.CreateForm(ctx, &model.Form{ProjectID: "p1", Name: "A"})
	require.NoError(t, err)
	_, err = st.CreateForm(ctx, &model.Form{ProjectID: "p2", Name: "B"})
	require.NoError(t, err)

	forms, err := st.FormsByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, "A", forms[0].Name)

	forms, err = st.FormsByProject(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestSubmissionRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	formID, err := st.CreateForm(ctx, &model.Form{
		Fields: []model.Field{{ID: "name", Kind: model.KindText}},
	})
	require.NoError(t, err)

	id, err := st.CreateSubmission(ctx, &model.Submission{
		FormID: formID,
		Answers: map[string]model.Answer{
			"name": model.TextAnswer(model.KindText, "Ann"),
		},
		OpenToken: "open_x_1",
	})
	require.NoError(t, err)

	subs, err := st.SubmissionsByForm(ctx, formID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, id, subs[0].ID)
	assert.Equal(t, "Ann", subs[0].Answers["name"].Text)
	assert.Equal(t, "open_x_1", subs[0].OpenToken)
}

func TestAdminPasswordHash(t *testing.T) {
	st := openStore(t)

	_, err := st.AdminPasswordHash(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
