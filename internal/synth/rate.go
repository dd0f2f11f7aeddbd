package synth

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSpeed is the rate modifier applied when a request names none.
const DefaultSpeed = "+0%"

// ParseRate converts a relative rate modifier ("+25%", "-10%", "0%") into a
// multiplier, so "+25%" becomes 1.25.
func ParseRate(speed string) (float64, error) {
	s := strings.TrimSpace(speed)
	if s == "" {
		return 1, nil
	}
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid speed %q: missing %% suffix", speed)
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid speed %q: %w", speed, err)
	}
	rate := 1 + pct/100
	if rate <= 0 {
		return 0, fmt.Errorf("invalid speed %q: rate must stay above zero", speed)
	}
	return rate, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
