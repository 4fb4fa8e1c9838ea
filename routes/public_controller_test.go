package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/payment"
	"github.com/formloom/formloom/routes"
	"github.com/formloom/formloom/session"
	"github.com/formloom/formloom/store"
	"github.com/formloom/formloom/store/storetest"
	"github.com/formloom/formloom/submit"
)

type fakeUploader struct {
	lastFilename string
}

func (u *fakeUploader) Upload(_ context.Context, formID, filename string, data []byte) (string, error) {
	u.lastFilename = filename
	return "https://files.test/forms/" + formID + "/" + filename, nil
}

func newTestApp(t *testing.T) (app.App, *storetest.Memory, *fakeUploader) {
	t.Helper()

	st := storetest.NewMemory()
	uploader := &fakeUploader{}
	submitter := &submit.Service{Store: st}
	return app.App{
		Store:     st,
		Blob:      uploader,
		Submitter: submitter,
		Sessions:  session.NewManager(session.ManagerConfig{Submitter: submitter}),
	}, st, uploader
}

func createForm(t *testing.T, st *storetest.Memory, form *model.Form) string {
	t.Helper()
	id, err := st.CreateForm(context.Background(), form)
	require.NoError(t, err)
	return id
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("content-type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetFormMissingIs404(t *testing.T) {
	a, _, _ := newTestApp(t)
	h := routes.Wire(a)

	w := doJSON(t, h, "GET", "/api/forms/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "form not found", decode(t, w)["error"])
}

func TestGetFormStripsSecrets(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Name:   "Survey",
		Fields: []model.Field{{ID: "q1", Kind: model.KindText}},
		Settings: model.Settings{
			RequirePassword: true,
			PasswordHash:    "$2a$10$secret",
		},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "GET", "/api/forms/"+id, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Survey", body["name"])
	settings := body["settings"].(map[string]any)
	assert.Equal(t, true, settings["requirePassword"])
	assert.NotContains(t, settings, "passwordHash")
	assert.NotContains(t, settings, "password")
}

func TestOpenAndSubmitFlow(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{
			{ID: "name", Kind: model.KindText, Validations: &model.Validations{Required: true}},
		},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	opened := decode(t, w)
	sessionID := opened["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, false, opened["requiresPassword"])
	assert.Equal(t, false, opened["singlePage"])
	assert.True(t, strings.HasPrefix(opened["openToken"].(string), "open_"))

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/submissions", map[string]any{
		"sessionId": sessionID,
		"values": map[string]any{
			"name": map[string]any{"kind": "text", "text": "Ann"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subID := decode(t, w)["id"].(string)

	subs, err := st.SubmissionsByForm(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subID, subs[0].ID)
	assert.Equal(t, "Ann", subs[0].Answers["name"].Text)
}

func TestOpenEchoesSinglePage(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields:   []model.Field{{ID: "q1", Kind: model.KindText}},
		Settings: model.Settings{SinglePage: true},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["singlePage"])
}

func TestSubmitValidationErrorIs422(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{
			{ID: "name", Kind: model.KindText, Validations: &model.Validations{Required: true}},
		},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	sessionID := decode(t, w)["sessionId"].(string)

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/submissions", map[string]any{
		"sessionId": sessionID,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "name", decode(t, w)["fieldId"])
}

func TestSubmitUnknownSessionIs404(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{{ID: "q1", Kind: model.KindText}},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/submissions", map[string]any{
		"sessionId": "stale",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type submissionFailStore struct {
	store.Store
}

func (s *submissionFailStore) CreateSubmission(context.Context, *model.Submission) (string, error) {
	return "", errors.New("write timeout")
}

func TestSubmitStoreFailureIs502(t *testing.T) {
	mem := storetest.NewMemory()
	submitter := &submit.Service{Store: &submissionFailStore{Store: mem}}
	a := app.App{
		Store:     mem,
		Submitter: submitter,
		Sessions:  session.NewManager(session.ManagerConfig{Submitter: submitter}),
	}
	id := createForm(t, mem, &model.Form{
		Fields: []model.Field{{ID: "q1", Kind: model.KindText}},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	sessionID := decode(t, w)["sessionId"].(string)

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/submissions", map[string]any{
		"sessionId": sessionID,
		"values": map[string]any{
			"q1": map[string]any{"kind": "text", "text": "hi"},
		},
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "submission failed", decode(t, w)["error"])
}

func TestSubmitPaymentFailureIs402(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	t.Cleanup(srv.Close)

	mem := storetest.NewMemory()
	submitter := &submit.Service{Store: mem}
	a := app.App{
		Store:     mem,
		Submitter: submitter,
		Sessions: session.NewManager(session.ManagerConfig{
			Submitter: submitter,
			Gateway: &payment.Gateway{
				BaseURL:    srv.URL,
				SecretKey:  "sk_test",
				HTTPClient: srv.Client(),
			},
		}),
	}
	id := createForm(t, mem, &model.Form{
		Fields: []model.Field{
			{
				ID: "pay", Kind: model.KindPayment,
				Properties: &model.Properties{
					Price:    &model.NumberPrice{Value: 9.99},
					Currency: "USD",
				},
			},
		},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	sessionID := decode(t, w)["sessionId"].(string)

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/submissions", map[string]any{
		"sessionId": sessionID,
		"values": map[string]any{
			"pay": map[string]any{
				"kind":    "payment",
				"payment": map[string]any{"billingName": "Ann"},
			},
		},
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, "card declined", decode(t, w)["error"])
}

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{{ID: "q1", Kind: model.KindText}},
		Settings: model.Settings{
			RequirePassword: true,
			PasswordHash:    string(hash),
		},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	sessionID := decode(t, w)["sessionId"].(string)

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/password", map[string]any{
		"sessionId": sessionID,
		"password":  "wrong",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h, "POST", "/api/forms/"+id+"/password", map[string]any{
		"sessionId": sessionID,
		"password":  "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["passwordToken"].(string), "pwd_"))
}

func TestAutosaveEndpoint(t *testing.T) {
	a, st, _ := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{{ID: "q1", Kind: model.KindText}},
	})
	h := routes.Wire(a)

	w := doJSON(t, h, "POST", "/api/forms/"+id+"/open", nil)
	sessionID := decode(t, w)["sessionId"].(string)

	w = doJSON(t, h, "PUT", "/api/forms/"+id+"/autosave", map[string]any{
		"sessionId": sessionID,
		"values": map[string]any{
			"q1": map[string]any{"kind": "text", "text": "draft"},
		},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	s, ok := a.Sessions.Get(sessionID)
	require.True(t, ok)
	assert.Equal(t, "draft", s.Values()["q1"].Text)
}

func TestUploadFile(t *testing.T) {
	a, st, uploader := newTestApp(t)
	id := createForm(t, st, &model.Form{
		Fields: []model.Field{{ID: "doc", Kind: model.KindFile}},
	})
	h := routes.Wire(a)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "resume.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/forms/"+id+"/files", &buf)
	req.Header.Set("content-type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "resume.txt", uploader.lastFilename)
	assert.Equal(t, "https://files.test/forms/"+id+"/resume.txt", decode(t, w)["url"])
}
