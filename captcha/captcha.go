// Package captcha verifies the challenge tokens clients attach to
// submissions. Two provider shapes exist: a single-token fetch (reCAPTCHA
// style) and a challenge widget that yields a token pair.
package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/formloom/formloom/model"
)

// Token carries whatever the client-side widget produced. Single-token
// providers fill Response only; challenge widgets fill both.
type Token struct {
	Response  string `json:"response"`
	Challenge string `json:"challenge,omitempty"`
}

type Verifier interface {
	Verify(ctx context.Context, tok Token) error
}

type Config struct {
	VerifyURL  string
	Secret     string
	HTTPClient *http.Client
}

// New builds the verifier for a form's captcha kind; nil when the form
// has captcha disabled.
func New(kind model.CaptchaKind, cfg Config) Verifier {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	switch kind {
	case model.CaptchaToken:
		return &tokenVerifier{cfg}
	case model.CaptchaChallenge:
		return &challengeVerifier{cfg}
	}
	return nil
}

type tokenVerifier struct {
	cfg Config
}

func (v *tokenVerifier) Verify(ctx context.Context, tok Token) error {
	if tok.Response == "" {
		return errors.New("captcha: missing token")
	}
	return verifyRemote(ctx, v.cfg, url.Values{
		"secret":   {v.cfg.Secret},
		"response": {tok.Response},
	})
}

type challengeVerifier struct {
	cfg Config
}

func (v *challengeVerifier) Verify(ctx context.Context, tok Token) error {
	if tok.Response == "" || tok.Challenge == "" {
		return errors.New("captcha: incomplete token pair")
	}
	return verifyRemote(ctx, v.cfg, url.Values{
		"secret":    {v.cfg.Secret},
		"response":  {tok.Response},
		"challenge": {tok.Challenge},
	})
}

func verifyRemote(ctx context.Context, cfg Config, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, "POST", cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "captcha.new_request")
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "captcha.verify")
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errors.Wrap(err, "captcha.verify.parse")
	}
	if !body.Success {
		return errors.New("captcha: verification failed")
	}
	return nil
}
