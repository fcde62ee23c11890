package signal

import (
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

// Durations summarizes a classified signal in seconds.
type Durations struct {
	Total float64
	Bark  float64
}

// Fraction returns the high share of the total time.
func (d Durations) Fraction() float64 {
	if d.Total == 0 {
		return 0
	}
	return d.Bark / d.Total
}

// Aggregate reduces a mask and its fixed sample step into duration metrics.
//
// Total time is the timestamp of the last sample, (n-1)*step, not n*step.
// Bark time is total * highFraction: a fraction-of-total estimate rather
// than a sum of per-sample durations. It assumes uniform sample spacing,
// which holds by construction; downstream summaries are calibrated to this
// definition, so it must not be replaced with an exact per-sample sum.
func Aggregate(mask []bool, step float64) (Durations, error) {
	n := len(mask)
	if n == 0 {
		return Durations{}, pkgerrors.NewEmptySignalError()
	}

	total := float64(n-1) * step
	fraction := float64(CountHigh(mask)) / float64(n)

	return Durations{
		Total: total,
		Bark:  total * fraction,
	}, nil
}
