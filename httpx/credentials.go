package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/store"
)

func NewBearerServer(st store.Store, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(
		cfg.TokenSecret,
		cfg.TokenTTL,
		CredentialsVerifier(st),
		nil,
	)
}

type credentialsVerifier struct {
	store  store.Store
	tokens *gocache.Cache
}

func CredentialsVerifier(st store.Store) oauth.CredentialsVerifier {
	refreshTTL := 8760 * time.Hour
	return &credentialsVerifier{
		store:  st,
		tokens: gocache.New(refreshTTL, time.Hour),
	}
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	hash, err := cs.store.AdminPasswordHash(r.Context(), username)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	cs.tokens.SetDefault(credential+":"+refreshTokenID, tokenID)
	return nil
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	key := credential + ":" + refreshTokenID
	if _, ok := cs.tokens.Get(key); !ok {
		return errors.New("could not refresh")
	}
	// refresh tokens are single use
	cs.tokens.Delete(key)
	return nil
}

func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
