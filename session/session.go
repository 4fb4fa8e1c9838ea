// Package session runs one form-filling session per client: field
// navigation, validation, autosave, and the submit flow with captcha and
// payment handling. A session is exclusive to one filler and discarded
// when it expires.
package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/formloom/formloom/captcha"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
	"github.com/formloom/formloom/payment"
	"github.com/formloom/formloom/sequence"
	"github.com/formloom/formloom/submit"
)

type State int

const (
	NotStarted State = iota
	InProgress
	Submitting
	Submitted
	ErrorDisplayed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case ErrorDisplayed:
		return "error"
	}
	return "unknown"
}

// SubmissionError is a generic store/network failure during submit. The
// client may retry; nothing retries automatically.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "submission failed: " + e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }

// Deps are the session-scoped capabilities handed in at open time. The
// captcha verifier in particular is per session, never package state.
type Deps struct {
	Submitter *submit.Service
	Verifier  captcha.Verifier
	Gateway   *payment.Gateway
	Autosave  *Autosave
}

type Session struct {
	ID   string
	form *model.Form
	deps Deps

	mu            sync.Mutex
	state         State
	values        map[string]model.Answer
	hidden        []model.HiddenFieldAnswer
	openToken     string
	passwordToken string
	autosaveKey   string

	errFieldID  string
	errMessage  string
	submitError string
}

// New opens a session for a form. Hidden-field values are resolved from
// the open request's query parameters; previously autosaved answers are
// restored unless the form enforces a time limit.
func New(id string, form *model.Form, query url.Values, deps Deps) *Session {
	s := &Session{
		ID:        id,
		form:      form,
		deps:      deps,
		state:     NotStarted,
		values:    map[string]model.Answer{},
		openToken: submit.OpenToken(form.ID),
	}

	for _, hf := range form.HiddenFields {
		if v := query.Get(hf.Name); v != "" {
			s.hidden = append(s.hidden, model.HiddenFieldAnswer{HiddenField: hf, Value: v})
		}
	}

	if deps.Autosave != nil && !form.Settings.EnableTimeLimit {
		s.autosaveKey = form.ID + ":" + id
		if saved, ok := deps.Autosave.Get(form.ID + ":" + query.Get("resume")); ok {
			for k, v := range saved {
				s.values[k] = v
			}
		}
	}

	return s
}

func (s *Session) Form() *model.Form { return s.form }

func (s *Session) OpenToken() string { return s.openToken }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FieldError returns the field the last validation failed on, if any.
func (s *Session) FieldError() (fieldID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errFieldID, s.errMessage
}

func (s *Session) SubmitError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitError
}

func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == NotStarted {
		s.state = InProgress
	}
}

func (s *Session) SetPasswordToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordToken = tok
}

// SetValue records an answer and autosaves the in-progress values.
func (s *Session) SetValue(fieldID string, a model.Answer) {
	s.mu.Lock()
	if s.state == NotStarted {
		s.state = InProgress
	}
	if a.IsZero() {
		delete(s.values, fieldID)
	} else {
		s.values[fieldID] = a
	}
	if s.errFieldID == fieldID {
		s.errFieldID, s.errMessage = "", ""
	}
	snapshot := s.snapshotLocked()
	key := s.autosaveKey
	s.mu.Unlock()

	if s.deps.Autosave != nil && key != "" {
		s.deps.Autosave.Put(key, snapshot)
	}
}

func (s *Session) Values() map[string]model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() map[string]model.Answer {
	values := make(map[string]model.Answer, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return values
}

// Advance resolves the field after fieldID under the form's jump rules.
// Terminal is true when no field follows.
func (s *Session) Advance(fieldID string) (next string, terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next = sequence.ResolveNext(s.form.Fields, s.values, fieldID)
	return next, next == ""
}

// Skip advances past an unanswered field, refusing for fields that must
// be acknowledged.
func (s *Session) Skip(fieldID string) (string, error) {
	idx := -1
	for i, f := range s.form.Fields {
		if f.ID == fieldID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", &sequence.FieldError{FieldID: fieldID, Message: "unknown field"}
	}
	if !sequence.Skippable(s.form.Fields[idx]) {
		return "", &sequence.FieldError{FieldID: fieldID, Message: "this field cannot be skipped"}
	}
	next, _ := s.Advance(fieldID)
	return next, nil
}

// Submit runs the terminal submission flow: validation scoped by the
// partial flag, captcha, payment-amount conversion, the store write, and
// payment confirmation. A submit while one is in flight is a no-op.
func (s *Session) Submit(ctx context.Context, tok captcha.Token, partial bool) (string, error) {
	s.mu.Lock()
	switch s.state {
	case Submitting, Submitted:
		s.mu.Unlock()
		return "", nil
	case ErrorDisplayed:
		// recoverable: the user re-clicked submit
		s.state = InProgress
	case NotStarted:
		s.state = InProgress
	}
	s.state = Submitting
	s.submitError = ""
	values := s.snapshotLocked()
	s.mu.Unlock()

	scope := sequence.ValidationScope(s.form.Fields, values, partial)
	if err := sequence.Validate(s.form.Fields, scope, values); err != nil {
		s.failValidation(err)
		return "", err
	}

	if s.deps.Verifier != nil {
		if err := s.deps.Verifier.Verify(ctx, tok); err != nil {
			return "", s.failSubmit(err)
		}
	}

	pay := s.materializePayment(values)

	id, err := s.deps.Submitter.Complete(ctx, submit.Payload{
		FormID:        s.form.ID,
		Answers:       values,
		HiddenFields:  s.hidden,
		OpenToken:     s.openToken,
		PasswordToken: s.passwordToken,
		Partial:       partial,
	})
	if err != nil {
		return "", s.failSubmit(err)
	}

	if pay != nil && s.deps.Gateway != nil {
		if err := s.confirmPayment(ctx, pay); err != nil {
			return "", s.failSubmit(err)
		}
	}

	s.mu.Lock()
	s.state = Submitted
	key := s.autosaveKey
	s.mu.Unlock()

	if s.deps.Autosave != nil && key != "" {
		s.deps.Autosave.Clear(key)
	}

	log.Debugf("session.submitted: form=%s submission=%s partial=%t", s.form.ID, id, partial)
	return id, nil
}

// Retry acknowledges a displayed error and reopens the session for input.
func (s *Session) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ErrorDisplayed {
		s.state = InProgress
		s.submitError = ""
	}
}

// materializePayment replaces each answered payment field's client answer
// with the server-computed charge, dropping answers whose field has no
// usable price. The first chargeable field is the one confirmed with the
// gateway.
func (s *Session) materializePayment(values map[string]model.Answer) *model.PaymentAnswer {
	for _, f := range s.form.Fields {
		if f.Kind != model.KindPayment {
			continue
		}
		a, ok := values[f.ID]
		if !ok || a.IsZero() {
			continue
		}

		billingName := ""
		if a.Payment != nil {
			billingName = a.Payment.BillingName
		}
		pay := sequence.PaymentAnswer(f, billingName)
		if pay == nil {
			delete(values, f.ID)
			continue
		}
		values[f.ID] = model.Answer{Kind: model.KindPayment, Payment: pay}
		return pay
	}
	return nil
}

func (s *Session) confirmPayment(ctx context.Context, pay *model.PaymentAnswer) error {
	secret, err := s.deps.Gateway.CreateIntent(ctx, pay.Amount, pay.Currency)
	if err != nil {
		return err
	}
	return s.deps.Gateway.ConfirmCard(ctx, secret, pay.BillingName)
}

// failValidation points the client at the offending field; the session
// stays interactive.
func (s *Session) failValidation(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = InProgress
	if ferr, ok := err.(*sequence.FieldError); ok {
		s.errFieldID = ferr.FieldID
		s.errMessage = ferr.Message
	}
}

func (s *Session) failSubmit(err error) error {
	if _, ok := err.(*payment.Error); !ok {
		err = &SubmissionError{Err: err}
	}
	s.mu.Lock()
	s.state = ErrorDisplayed
	s.submitError = err.Error()
	s.mu.Unlock()
	return err
}
