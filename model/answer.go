package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Answer is a tagged union keyed by field kind. Exactly one variant field
// is set for the known kinds; answers for kinds this build does not know
// round-trip through Value untouched.
type Answer struct {
	Kind    FieldKind       `json:"kind" bson:"kind"`
	Text    string          `json:"text,omitempty" bson:"text,omitempty"`
	Number  *float64        `json:"number,omitempty" bson:"number,omitempty"`
	Choices []string        `json:"choices,omitempty" bson:"choices,omitempty"`
	FileURL string          `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	Payment *PaymentAnswer  `json:"payment,omitempty" bson:"payment,omitempty"`
	Value   json.RawMessage `json:"value,omitempty" bson:"value,omitempty"`
}

// PaymentAnswer carries the amount in integer minor units (cents), never a
// fractional float.
type PaymentAnswer struct {
	Amount      int64  `json:"amount" bson:"amount"`
	Currency    string `json:"currency" bson:"currency"`
	BillingName string `json:"billingName,omitempty" bson:"billingName,omitempty"`
}

func TextAnswer(kind FieldKind, text string) Answer {
	return Answer{Kind: kind, Text: text}
}

func NumberAnswer(n float64) Answer {
	return Answer{Kind: KindNumber, Number: &n}
}

func ChoiceAnswer(choices ...string) Answer {
	return Answer{Kind: KindChoice, Choices: choices}
}

func (a Answer) IsZero() bool {
	return a.Text == "" && a.Number == nil && len(a.Choices) == 0 &&
		a.FileURL == "" && a.Payment == nil && len(a.Value) == 0
}

// Compare returns the answer rendered as the plain string jump rules
// match against.
func (a Answer) Compare() string {
	switch {
	case a.Text != "":
		return a.Text
	case a.Number != nil:
		return strconv.FormatFloat(*a.Number, 'f', -1, 64)
	case len(a.Choices) > 0:
		return strings.Join(a.Choices, ",")
	case a.FileURL != "":
		return a.FileURL
	default:
		return ""
	}
}

// Contains reports whether any part of the answer equals v.
func (a Answer) Contains(v string) bool {
	for _, c := range a.Choices {
		if c == v {
			return true
		}
	}
	return a.Text != "" && strings.Contains(a.Text, v)
}
