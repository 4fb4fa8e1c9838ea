package captcha_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloom/formloom/captcha"
	"github.com/formloom/formloom/model"
)

func verifierFor(t *testing.T, kind model.CaptchaKind, handler http.HandlerFunc) captcha.Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return captcha.New(kind, captcha.Config{
		VerifyURL:  srv.URL,
		Secret:     "cap_secret",
		HTTPClient: srv.Client(),
	})
}

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, captcha.New(model.CaptchaNone, captcha.Config{}))
}

func TestTokenVerifier(t *testing.T) {
	v := verifierFor(t, model.CaptchaToken, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cap_secret", r.FormValue("secret"))
		assert.Equal(t, "tok_1", r.FormValue("response"))
		w.Write([]byte(`{"success":true}`))
	})

	assert.NoError(t, v.Verify(context.Background(), captcha.Token{Response: "tok_1"}))
}

func TestTokenVerifierRejected(t *testing.T) {
	v := verifierFor(t, model.CaptchaToken, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	})

	err := v.Verify(context.Background(), captcha.Token{Response: "tok_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification failed")
}

func TestTokenVerifierMissingToken(t *testing.T) {
	v := captcha.New(model.CaptchaToken, captcha.Config{})

	assert.Error(t, v.Verify(context.Background(), captcha.Token{}))
}

func TestChallengeVerifier(t *testing.T) {
	v := verifierFor(t, model.CaptchaChallenge, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cap_secret", r.FormValue("secret"))
		assert.Equal(t, "tok_1", r.FormValue("response"))
		assert.Equal(t, "ch_1", r.FormValue("challenge"))
		w.Write([]byte(`{"success":true}`))
	})

	tok := captcha.Token{Response: "tok_1", Challenge: "ch_1"}
	assert.NoError(t, v.Verify(context.Background(), tok))
}

func TestChallengeVerifierIncompletePair(t *testing.T) {
	v := captcha.New(model.CaptchaChallenge, captcha.Config{})

	assert.Error(t, v.Verify(context.Background(), captcha.Token{Response: "tok_1"}))
	assert.Error(t, v.Verify(context.Background(), captcha.Token{Challenge: "ch_1"}))
}
