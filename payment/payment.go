// Package payment confirms card charges against the payment provider,
// out-of-band from submission storage.
package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Error is a failed confirmation with a message fit to show the user.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "payment: " + e.Message
}

type Gateway struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// CreateIntent registers the charge with the provider and returns the
// client secret the confirmation step needs.
func (g *Gateway) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	body, err := g.post(ctx, "/v1/payment_intents", url.Values{
		"amount":   {strconv.FormatInt(amount, 10)},
		"currency": {currency},
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		ClientSecret string `json:"client_secret"`
		Error        *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "payment.create_intent.parse")
	}
	if resp.Error != nil {
		return "", &Error{Message: resp.Error.Message}
	}
	return resp.ClientSecret, nil
}

// ConfirmCard confirms a charge by client secret with the given billing
// name. Provider rejections surface as *Error.
func (g *Gateway) ConfirmCard(ctx context.Context, clientSecret, billingName string) error {
	body, err := g.post(ctx, "/v1/payment_intents/confirm", url.Values{
		"client_secret": {clientSecret},
		"billing_name":  {billingName},
	})
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return errors.Wrap(err, "payment.confirm.parse")
	}
	if resp.Error != nil {
		return &Error{Message: resp.Error.Message}
	}
	if resp.Status != "succeeded" {
		return &Error{Message: "payment was not completed"}
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", g.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "payment.new_request")
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("authorization", "Bearer "+g.SecretKey)

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "payment.request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, errors.Wrap(err, "payment.read_response")
}
