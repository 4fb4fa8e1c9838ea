package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/formloom/formloom/model"
)

// Autosave keeps in-progress answer sets around for a while, keyed by
// form id plus the client's resume key, so an interrupted fill can pick
// up where it left off. Cleared on successful submit.
type Autosave struct {
	c *gocache.Cache
}

func NewAutosave(ttl time.Duration) *Autosave {
	return &Autosave{c: gocache.New(ttl, 2*ttl)}
}

func (a *Autosave) Put(key string, values map[string]model.Answer) {
	a.c.SetDefault(key, values)
}

func (a *Autosave) Get(key string) (map[string]model.Answer, bool) {
	v, ok := a.c.Get(key)
	if !ok {
		return nil, false
	}
	values, ok := v.(map[string]model.Answer)
	return values, ok
}

func (a *Autosave) Clear(key string) {
	a.c.Delete(key)
}
