package analysis

import (
	"errors"
	"math"

	"github.com/bobmcallan/hindsight/internal/models"
)

// ErrNoConvergence is returned when the XIRR root find cannot locate a
// rate that zeroes the net present value of the cash flows.
var ErrNoConvergence = errors.New("xirr root find did not converge")

// SolveXIRR finds the daily rate r such that NPV(r) = 0 over irregularly
// dated cash flows, where NPV(r) = sum of amount_i / (1 + r)^(days_i) and
// days_i counts from the earliest flow. Newton-Raphson first, bisection as
// fallback. The caller annualizes the daily rate.
func SolveXIRR(flows models.CashFlow) (float64, error) {
	const (
		maxIter = 100
		tol     = 1e-9
		minRate = -0.999
		maxRate = 1.0
	)

	days, err := flowDays(flows)
	if err != nil {
		return 0, err
	}

	// A root requires at least one flow in each direction
	hasNeg, hasPos := false, false
	for _, f := range flows {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		// All-zero flows are a degenerate but exact zero-return case
		if flows.Sum() == 0 {
			return 0, nil
		}
		return 0, ErrNoConvergence
	}

	rate := 0.0

	for iter := 0; iter < maxIter; iter++ {
		npv := 0.0
		dnpv := 0.0

		for i, f := range flows {
			d := days[i]
			base := 1 + rate
			if base <= 0 {
				rate = minRate
				base = 1 + rate
			}
			discount := math.Pow(base, d)
			if discount == 0 || math.IsInf(discount, 0) {
				continue
			}
			npv += f.Amount / discount
			if d != 0 {
				dnpv -= d * f.Amount / (discount * base)
			}
		}

		if math.Abs(npv) < tol {
			return rate, nil
		}
		if dnpv == 0 {
			break
		}

		newRate := rate - npv/dnpv
		if newRate < minRate {
			newRate = minRate
		}
		if newRate > maxRate {
			newRate = maxRate
		}
		rate = newRate
	}

	return bisectXIRR(flows, days)
}

// bisectXIRR is the fallback solver when Newton-Raphson oscillates.
func bisectXIRR(flows models.CashFlow, days []float64) (float64, error) {
	const (
		maxIter = 200
		tol     = 1e-9
	)

	npvAt := func(rate float64) float64 {
		sum := 0.0
		for i, f := range flows {
			base := 1 + rate
			if base <= 0 {
				return math.NaN()
			}
			discount := math.Pow(base, days[i])
			if discount == 0 || math.IsInf(discount, 0) {
				continue
			}
			sum += f.Amount / discount
		}
		return sum
	}

	lo, hi := -0.99, 1.0
	npvLo := npvAt(lo)
	npvHi := npvAt(hi)

	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || npvLo*npvHi > 0 {
		return 0, ErrNoConvergence
	}

	for iter := 0; iter < maxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npvAt(mid)
		if math.IsNaN(npvMid) {
			return 0, ErrNoConvergence
		}
		if math.Abs(npvMid) < tol {
			return mid, nil
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}

	return (lo + hi) / 2, nil
}

// flowDays converts flow dates to day offsets from the earliest flow.
func flowDays(flows models.CashFlow) ([]float64, error) {
	if len(flows) == 0 {
		return nil, ErrNoConvergence
	}

	var base float64
	times := make([]float64, len(flows))
	for i, f := range flows {
		t := models.ParseDateKey(f.Date)
		if t.IsZero() {
			return nil, ErrNoConvergence
		}
		days := float64(t.Unix()) / 86400
		times[i] = days
		if i == 0 || days < base {
			base = days
		}
	}

	for i := range times {
		times[i] -= base
	}
	return times, nil
}
