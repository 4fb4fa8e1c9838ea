package sequence

import (
	"github.com/shopspring/decimal"

	"github.com/formloom/formloom/model"
)

// MinorUnits converts a price to integer minor units (9.99 -> 999) with
// fixed-point arithmetic, so fractional cents never reach the gateway.
func MinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// PaymentAnswer materializes the charge for a payment field from its
// configured price/currency and the billing name the user entered.
// Returns nil when the field has no usable price; the answer is dropped
// rather than charging zero.
func PaymentAnswer(f model.Field, billingName string) *model.PaymentAnswer {
	p := f.Properties
	if p == nil || p.Price == nil || p.Price.Value <= 0 || p.Currency == "" {
		return nil
	}
	return &model.PaymentAnswer{
		Amount:      MinorUnits(p.Price.Value),
		Currency:    p.Currency,
		BillingName: billingName,
	}
}
