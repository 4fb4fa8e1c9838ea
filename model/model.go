package model

import "time"

type Form struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID    string        `json:"projectId" bson:"projectId"`
	Name         string        `json:"name" bson:"name"`
	Fields       []Field       `json:"fields" bson:"fields"`
	Settings     Settings      `json:"settings" bson:"settings"`
	HiddenFields []HiddenField `json:"hiddenFields,omitempty" bson:"hiddenFields,omitempty"`
	CreatedAt    time.Time     `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Public returns a copy of the form safe to serve to fillers.
func (f Form) Public() Form {
	f.Settings.Password = ""
	f.Settings.PasswordHash = ""
	return f
}

type FieldKind string

const (
	KindText      FieldKind = "text"
	KindLongText  FieldKind = "long_text"
	KindNumber    FieldKind = "number"
	KindChoice    FieldKind = "choice"
	KindFile      FieldKind = "file"
	KindPayment   FieldKind = "payment"
	KindStatement FieldKind = "statement"
	KindGroup     FieldKind = "group"
)

type Field struct {
	ID          string       `json:"id" bson:"id"`
	Kind        FieldKind    `json:"kind" bson:"kind"`
	Title       string       `json:"title" bson:"title"`
	Validations *Validations `json:"validations,omitempty" bson:"validations,omitempty"`
	Properties  *Properties  `json:"properties,omitempty" bson:"properties,omitempty"`
	Jump        *JumpRule    `json:"jump,omitempty" bson:"jump,omitempty"`
}

func (f Field) Required() bool {
	return f.Validations != nil && f.Validations.Required
}

type Validations struct {
	Required  bool     `json:"required" bson:"required"`
	MaxLength int      `json:"maxLength,omitempty" bson:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty" bson:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" bson:"max,omitempty"`
}

// Properties is the kind-specific bag: price/currency for payment fields,
// choices for choice fields.
type Properties struct {
	Price    *NumberPrice `json:"price,omitempty" bson:"price,omitempty"`
	Currency string       `json:"currency,omitempty" bson:"currency,omitempty"`
	Choices  []string     `json:"choices,omitempty" bson:"choices,omitempty"`
}

type NumberPrice struct {
	Value float64 `json:"value" bson:"value"`
}

type JumpOp string

const (
	JumpEquals    JumpOp = "eq"
	JumpNotEquals JumpOp = "neq"
	JumpContains  JumpOp = "contains"
)

// JumpRule redirects the next-field sequence when the owning field's
// answer matches Value under Op.
type JumpRule struct {
	Op     JumpOp `json:"op" bson:"op"`
	Value  string `json:"value" bson:"value"`
	Target string `json:"target" bson:"target"`
}

type CaptchaKind string

const (
	CaptchaNone      CaptchaKind = ""
	CaptchaToken     CaptchaKind = "recaptcha"
	CaptchaChallenge CaptchaKind = "challenge"
)

type Settings struct {
	CaptchaKind     CaptchaKind `json:"captchaKind,omitempty" bson:"captchaKind,omitempty"`
	RequirePassword bool        `json:"requirePassword,omitempty" bson:"requirePassword,omitempty"`
	// Password is write-only input on create/update; only its hash is kept.
	Password        string `json:"password,omitempty" bson:"-"`
	PasswordHash    string `json:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	EnableTimeLimit bool   `json:"enableTimeLimit,omitempty" bson:"enableTimeLimit,omitempty"`
	TimeLimit       int    `json:"timeLimit,omitempty" bson:"timeLimit,omitempty"`
	SinglePage      bool   `json:"singlePage,omitempty" bson:"singlePage,omitempty"`
}

// HiddenField is declared on the form; its value arrives in the open
// request's query string, never typed by the user.
type HiddenField struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type HiddenFieldAnswer struct {
	HiddenField `bson:",inline"`
	Value       string `json:"value" bson:"value"`
}

type Submission struct {
	ID            string              `json:"id,omitempty" bson:"_id,omitempty"`
	FormID        string              `json:"formId" bson:"formId"`
	Answers       map[string]Answer   `json:"answers" bson:"answers"`
	HiddenFields  []HiddenFieldAnswer `json:"hiddenFields,omitempty" bson:"hiddenFields,omitempty"`
	OpenToken     string              `json:"openToken,omitempty" bson:"openToken,omitempty"`
	PasswordToken string              `json:"passwordToken,omitempty" bson:"passwordToken,omitempty"`
	Partial       bool                `json:"partial" bson:"partial"`
	CreatedAt     time.Time           `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}
