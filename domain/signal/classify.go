// Package signal implements the volume classification core: thresholding a
// mono amplitude sequence into a high/low mask, patching short low-volume
// gaps so sustained events are not fragmented, and reducing the mask into
// duration metrics.
package signal

import (
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

// Threshold computes the raw classification mask: a sample is high when it
// is strictly greater than cutoff.
func Threshold(samples []float64, cutoff float64) []bool {
	mask := make([]bool, len(samples))
	for i, v := range samples {
		mask[i] = v > cutoff
	}
	return mask
}

// Patch reclassifies every low run of at most maxGapSamples samples as high.
// High runs are never altered, and low runs at the sequence boundaries obey
// the same length rule as interior ones. A low run longer than maxGapSamples
// stays low even when the whole sequence is below threshold: an all-low
// recording shorter than the gap tolerance becomes entirely high, which is
// an accepted consequence of the rule.
//
// maxGapSamples == 0 returns the input mask untouched, without computing
// runs. The fast path is contractual: it must behave identically to a rule
// that never patches.
func Patch(mask []bool, maxGapSamples int) []bool {
	if maxGapSamples <= 0 {
		return mask
	}

	patched := make([]bool, len(mask))
	copy(patched, mask)

	for _, run := range Runs(mask) {
		if run.High || run.Length > maxGapSamples {
			continue
		}
		for i := run.Start; i < run.Start+run.Length; i++ {
			patched[i] = true
		}
	}
	return patched
}

// Classify thresholds samples against cutoff and patches low gaps of at
// most maxGapSamples. An empty sample sequence is rejected: downstream
// duration math divides by the sample count.
func Classify(samples []float64, cutoff float64, maxGapSamples int) ([]bool, error) {
	if len(samples) == 0 {
		return nil, pkgerrors.NewEmptySignalError()
	}
	return Patch(Threshold(samples, cutoff), maxGapSamples), nil
}

// CountHigh returns the number of high samples in a mask.
func CountHigh(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}
