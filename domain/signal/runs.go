package signal

// Run is a maximal contiguous stretch of identically classified samples.
type Run struct {
	High   bool
	Start  int
	Length int
}

// Runs partitions a mask into maximal runs of identical value, in order,
// covering the whole mask with no gaps or overlaps. A new run begins at
// index 0 and at every index where the mask value changes.
func Runs(mask []bool) []Run {
	if len(mask) == 0 {
		return nil
	}

	runs := []Run{{High: mask[0], Start: 0, Length: 1}}
	for i := 1; i < len(mask); i++ {
		if mask[i] != mask[i-1] {
			runs = append(runs, Run{High: mask[i], Start: i, Length: 1})
			continue
		}
		runs[len(runs)-1].Length++
	}
	return runs
}
