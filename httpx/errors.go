package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/payment"
	"github.com/formloom/formloom/sequence"
	"github.com/formloom/formloom/store"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// RenderDomainError maps the domain error taxonomy onto HTTP, with JSON
// bodies the client can act on:
//
//	not found          -> 404 {"error": "form not found"}
//	validation error   -> 422 {"fieldId": ..., "message": ...}
//	payment error      -> 402 {"error": ...}
//	anything else      -> 502 {"error": "submission failed"}, retryable
func RenderDomainError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var ferr *sequence.FieldError
	var perr *payment.Error

	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Debugf("%s: %s", code, err)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]any{"error": store.ErrNotFound.Error()})

	case errors.As(err, &ferr):
		log.Debugf("%s: %s", code, err)
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ferr)

	case errors.As(err, &perr):
		log.Warnf("%s: %s", code, err)
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, map[string]any{"error": perr.Message})

	default:
		log.Errorf("%s: %s", code, err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, map[string]any{"error": "submission failed"})
	}
}
