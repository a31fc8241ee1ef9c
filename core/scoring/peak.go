package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is one peak period expressed as wall-clock "HH:MM" bounds, inclusive
// on both ends.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// PeakSchedule answers whether a given wall-clock time falls in a peak window.
type PeakSchedule struct {
	windows [][2]int // minute-of-day bounds, inclusive
}

// NewPeakSchedule validates and compiles the configured windows.
func NewPeakSchedule(windows []Window) (*PeakSchedule, error) {
	s := &PeakSchedule{}
	for _, w := range windows {
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("peak window %s-%s ends before it starts", w.Start, w.End)
		}
		s.windows = append(s.windows, [2]int{start, end})
	}
	return s, nil
}

// IsPeak reports whether t lies inside any configured window.
func (s *PeakSchedule) IsPeak(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	for _, w := range s.windows {
		if minute >= w[0] && minute <= w[1] {
			return true
		}
	}
	return false
}
