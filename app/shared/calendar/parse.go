package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DayParser accepts either YYYY-MM-DD or relative English such as
// "yesterday" or "last monday".
type DayParser struct {
	w *when.Parser
}

func NewDayParser() *DayParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DayParser{w: w}
}

// ParseDay resolves input to a calendar day relative to clock in loc.
func (p *DayParser) ParseDay(input string, loc *time.Location, clock Clock) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty day")
	}
	if d, err := time.Parse(DayLayout, input); err == nil {
		return d, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	base := clock.Now().In(loc)
	r, err := p.w.Parse(strings.ToLower(input), base)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse day %q: %w", input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("unrecognized day %q", input)
	}
	return DayOf(r.Time, loc), nil
}
