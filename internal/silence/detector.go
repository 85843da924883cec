// Package silence finds low-amplitude runs in a sampled audio timeline.
package silence

// MinDuration is the shortest interval Detect reports.
const MinDuration = 0.25

type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Detect walks parallel per-sample durations and amplitudes, laid out on a
// timeline starting at 0. A sample is silent when its amplitude is strictly
// below threshold. Empty or mismatched inputs yield no intervals.
func Detect(durations, amplitudes []float64, threshold float64) []Interval {
	if len(durations) == 0 || len(durations) != len(amplitudes) {
		return []Interval{}
	}

	var (
		found    []Interval
		cursor   float64
		start    float64
		tracking bool
	)
	for i, duration := range durations {
		if amplitudes[i] < threshold {
			if !tracking {
				start = cursor
				tracking = true
			}
		} else if tracking {
			// the run ends where the loud sample begins
			found = append(found, Interval{Start: start, End: cursor})
			tracking = false
		}
		cursor += duration
	}
	if tracking {
		found = append(found, Interval{Start: start, End: cursor})
	}

	ret := make([]Interval, 0, len(found))
	for _, iv := range found {
		if iv.Duration() >= MinDuration {
			ret = append(ret, iv)
		}
	}
	return ret
}
