package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.Config)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// public renderer surface
	api.Get("/forms/{id}", PublicGetForm(app))
	api.Post("/forms/{id}/open", OpenForm(app))
	api.Post("/forms/{id}/password", CheckPassword(app))
	api.Put("/forms/{id}/autosave", Autosave(app))
	api.Post("/forms/{id}/files", UploadFile(app))
	api.Post("/forms/{id}/submissions", SubmitForm(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.Config))

		// CRUD forms
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Patch("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Get("/forms/{id}/submissions", GetFormSubmissions(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
