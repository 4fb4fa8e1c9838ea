package app

import (
	"github.com/go-chi/oauth"

	"github.com/formloom/formloom/blob"
	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/session"
	"github.com/formloom/formloom/store"
	"github.com/formloom/formloom/submit"
)

type App struct {
	Store     store.Store
	Blob      blob.Uploader
	Submitter *submit.Service
	Sessions  *session.Manager
	*oauth.BearerServer
	config.Config
}
