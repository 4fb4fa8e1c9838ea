package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(form.Fields) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form.fields", "a form needs at least one field")
			return
		}

		if err := hashFormPassword(&form); err != nil {
			httpx.LogInternalError(w, "create_form.password", err)
			return
		}

		formId, err := app.Store.CreateForm(r.Context(), &form)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": formId,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectId := r.URL.Query().Get("project")

		forms, err := app.Store.FormsByProject(r.Context(), projectId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := app.Store.Form(r.Context(), formId)
		if err != nil {
			httpx.RenderDomainError(w, r, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// UpdateForm applies a partial update: only the document fields present
// in the body change.
func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		fields := map[string]any{}
		err := render.DecodeJSON(r.Body, &fields)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		delete(fields, "id")
		delete(fields, "createdAt")
		delete(fields, "updatedAt")

		if err := hashSettingsPassword(fields); err != nil {
			httpx.LogInternalError(w, "update_form.password", err)
			return
		}

		err = app.Store.UpdateForm(r.Context(), formId, fields)
		if err != nil {
			httpx.RenderDomainError(w, r, "db.update_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		err := app.Store.DeleteForm(r.Context(), formId)
		if err != nil {
			httpx.RenderDomainError(w, r, "db.delete_form", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		if _, err := app.Store.Form(r.Context(), formId); err != nil {
			httpx.RenderDomainError(w, r, "db.get_submissions.form", err)
			return
		}

		submissions, err := app.Store.SubmissionsByForm(r.Context(), formId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}

func hashFormPassword(form *model.Form) error {
	if form.Settings.Password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Settings.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	form.Settings.Password = ""
	form.Settings.PasswordHash = string(hash)
	return nil
}

// hashSettingsPassword rewrites a plain password inside a partial
// settings update into its hash.
func hashSettingsPassword(fields map[string]any) error {
	settings, ok := fields["settings"].(map[string]any)
	if !ok {
		return nil
	}
	password, ok := settings["password"].(string)
	if !ok || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	delete(settings, "password")
	settings["passwordHash"] = string(hash)
	return nil
}
