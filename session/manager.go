package session

import (
	"net/url"
	"time"

	"github.com/gofrs/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/formloom/formloom/captcha"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/payment"
	"github.com/formloom/formloom/submit"
)

// Manager tracks live sessions. Sessions expire after TTL of inactivity;
// navigating away simply abandons them.
type Manager struct {
	submitter *submit.Service
	gateway   *payment.Gateway
	captcha   captcha.Config
	autosave  *Autosave
	sessions  *gocache.Cache
}

type ManagerConfig struct {
	Submitter   *submit.Service
	Gateway     *payment.Gateway
	Captcha     captcha.Config
	SessionTTL  time.Duration
	AutosaveTTL time.Duration
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.AutosaveTTL == 0 {
		cfg.AutosaveTTL = 24 * time.Hour
	}
	return &Manager{
		submitter: cfg.Submitter,
		gateway:   cfg.Gateway,
		captcha:   cfg.Captcha,
		autosave:  NewAutosave(cfg.AutosaveTTL),
		sessions:  gocache.New(cfg.SessionTTL, 2*cfg.SessionTTL),
	}
}

// Open starts a session for the form. The captcha verifier is built here
// from the form's settings and scoped to the session.
func (m *Manager) Open(form *model.Form, query url.Values) *Session {
	id := uuid.Must(uuid.NewV4()).String()
	s := New(id, form, query, Deps{
		Submitter: m.submitter,
		Verifier:  captcha.New(form.Settings.CaptchaKind, m.captcha),
		Gateway:   m.gateway,
		Autosave:  m.autosave,
	})
	m.sessions.SetDefault(id, s)
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}
