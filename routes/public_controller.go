package routes

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/captcha"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
)

const maxUploadSize = 10 << 20 // 10 MiB

// PublicGetForm serves the renderer view of a form. The password hash
// never leaves the server; hidden-field declarations do, so the client
// knows which query parameters matter.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := app.Store.Form(r.Context(), formId)
		if err != nil {
			httpx.RenderDomainError(w, r, "public.get_form", err)
			return
		}

		render.JSON(w, r, form.Public())
	}
}

// OpenForm starts a filling session. Hidden-field values are picked out
// of the query string at open time.
func OpenForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := app.Store.Form(r.Context(), formId)
		if err != nil {
			httpx.RenderDomainError(w, r, "public.open_form", err)
			return
		}

		s := app.Sessions.Open(form, r.URL.Query())

		render.JSON(w, r, map[string]any{
			"sessionId":        s.ID,
			"openToken":        s.OpenToken(),
			"requiresPassword": form.Settings.RequirePassword,
			"singlePage":       form.Settings.SinglePage,
		})
	}
}

// CheckPassword exchanges a form password for the token submissions must
// carry when the form is protected.
func CheckPassword(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		var body struct {
			SessionID string `json:"sessionId"`
			Password  string `json:"password"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, ok := app.Sessions.Get(body.SessionID)
		if !ok || s.Form().ID != formId {
			httpx.LogNotFound(w, "public.password.session", body.SessionID)
			return
		}

		hash := s.Form().Settings.PasswordHash
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password))
		if err != nil {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "public.password.mismatch")
			return
		}

		token := fmt.Sprintf("pwd_%s_%d", formId, time.Now().UnixMilli())
		s.SetPasswordToken(token)

		render.JSON(w, r, map[string]any{
			"passwordToken": token,
		})
	}
}

// Autosave records in-progress values so an interrupted fill can resume.
func Autosave(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		var body struct {
			SessionID string                  `json:"sessionId"`
			Values    map[string]model.Answer `json:"values"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, ok := app.Sessions.Get(body.SessionID)
		if !ok || s.Form().ID != formId {
			httpx.LogNotFound(w, "public.autosave.session", body.SessionID)
			return
		}

		for id, a := range body.Values {
			s.SetValue(id, a)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadFile stores a file answer in object storage and returns its
// public URL, which the client then submits as the field's answer.
func UploadFile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		if _, err := app.Store.Form(r.Context(), formId); err != nil {
			httpx.RenderDomainError(w, r, "public.upload.get_form", err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_file")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.read_file")
			return
		}

		url, err := app.Blob.Upload(r.Context(), formId, header.Filename, data)
		if err != nil {
			httpx.LogInternalError(w, "blob.upload", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"url": url,
		})
	}
}

// SubmitForm runs the terminal submission flow for a session.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		var body struct {
			SessionID string                  `json:"sessionId"`
			Values    map[string]model.Answer `json:"values"`
			Captcha   captcha.Token           `json:"captcha"`
			Partial   bool                    `json:"partial"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, ok := app.Sessions.Get(body.SessionID)
		if !ok || s.Form().ID != formId {
			httpx.LogNotFound(w, "public.submit.session", body.SessionID)
			return
		}

		for id, a := range body.Values {
			s.SetValue(id, a)
		}

		submissionId, err := s.Submit(r.Context(), body.Captcha, body.Partial)
		if err != nil {
			httpx.RenderDomainError(w, r, "public.submit", err)
			return
		}
		if submissionId == "" {
			// a submit was already in flight; nothing new was created
			w.WriteHeader(http.StatusAccepted)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}
