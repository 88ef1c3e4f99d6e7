package normalizer

import (
	"math"

	"vacmetrics/internal/snapshot/models"
)

// Period factors convert raw bounds to a monthly equivalent. Hours and days
// per month follow the production norms used when the collectors were built
// (164 working hours, 21 working days, 15 shifts).
var periodFactor = map[models.PaymentType]float64{
	models.PaymentMonthly: 1,
	models.PaymentDaily:   21,
	models.PaymentHourly:  164,
	models.PaymentShift:   15,
}

// RecalculatedSalary is the outcome of normalizing raw salary bounds to the
// common monthly gross basis.
type RecalculatedSalary struct {
	From       *int
	To         *int
	AppliedTax float64
	Indication models.SalaryIndication
}

// Recalculate converts raw salary bounds into monthly gross equivalents.
// Absent raw bounds yield absent recalculated bounds, and Indication records
// why. Net amounts are grossed up by taxRate. Unknown payment types are
// treated as monthly: the raw value is preserved rather than guessed at.
func Recalculate(from, to *int, paymentType models.PaymentType, taxMode models.TaxMode, taxRate float64) RecalculatedSalary {
	out := RecalculatedSalary{Indication: indication(from, to)}
	if out.Indication == models.IndicationNotSpecified {
		return out
	}

	factor, ok := periodFactor[paymentType]
	if !ok {
		factor = 1
	}

	grossUp := 1.0
	if taxMode == models.TaxNet && taxRate > 0 && taxRate < 1 {
		grossUp = 1 / (1 - taxRate)
		out.AppliedTax = taxRate
	}

	if from != nil {
		v := int(math.Round(float64(*from) * factor * grossUp))
		out.From = &v
	}
	if to != nil {
		v := int(math.Round(float64(*to) * factor * grossUp))
		out.To = &v
	}
	return out
}

func indication(from, to *int) models.SalaryIndication {
	switch {
	case from == nil && to == nil:
		return models.IndicationNotSpecified
	case from != nil && to != nil:
		return models.IndicationRange
	case from != nil:
		return models.IndicationFromOnly
	default:
		return models.IndicationToOnly
	}
}
