package submit_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/store/storetest"
	"github.com/formloom/formloom/submit"
)

func TestCompletePersistsOneRecord(t *testing.T) {
	st := storetest.NewMemory()
	svc := &submit.Service{Store: st}

	id, err := svc.Complete(context.Background(), submit.Payload{
		FormID: "form-1",
		Answers: map[string]model.Answer{
			"name": model.TextAnswer(model.KindText, "Ann"),
		},
		HiddenFields: []model.HiddenFieldAnswer{
			{HiddenField: model.HiddenField{ID: "h1", Name: "ref"}, Value: "mail"},
		},
		OpenToken:     "open_form-1_1",
		PasswordToken: "pwd_form-1_1",
		Partial:       true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	subs, err := st.SubmissionsByForm(context.Background(), "form-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs[0]
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, "form-1", sub.FormID)
	assert.Equal(t, "Ann", sub.Answers["name"].Text)
	assert.Equal(t, "mail", sub.HiddenFields[0].Value)
	assert.Equal(t, "open_form-1_1", sub.OpenToken)
	assert.Equal(t, "pwd_form-1_1", sub.PasswordToken)
	assert.True(t, sub.Partial)
	assert.False(t, sub.CreatedAt.IsZero())
}

func TestOpenTokenEmbedsFormID(t *testing.T) {
	tok := submit.OpenToken("form-9")
	assert.True(t, strings.HasPrefix(tok, "open_form-9_"))
	assert.NotEqual(t, "open_form-9_", tok)
}
