package schedule

import "time"

// SlotGrid enumerates every candidate slot start for a date range.
type SlotGrid struct {
	policy Policy
	loc    *time.Location
}

func NewSlotGrid(policy Policy, loc *time.Location) *SlotGrid {
	return &SlotGrid{policy: policy, loc: loc}
}

// Generate returns the ordered sequence of candidate start instants at slot
// granularity covering every practice-local day touched by [start, end],
// filtered through the policy's day and time-of-day rules. Existing bookings
// and the past-time cutoff are not applied here.
func (g *SlotGrid) Generate(start, end time.Time) []time.Time {
	if end.Before(start) {
		start, end = end, start
	}

	// Normalize to local day boundaries: 00:00:00 of the first day through
	// 23:59:59 of the last, so a single-day range still yields the full day.
	first := dayStart(start.In(g.loc))
	lastDay := dayStart(end.In(g.loc))

	var slots []time.Time
	for day := first; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if ok, _ := g.policy.EligibleDay(day); !ok {
			continue
		}
		next := day.AddDate(0, 0, 1)
		for t := day; t.Before(next); t = t.Add(SlotDuration) {
			if ok, _ := g.policy.EligibleStart(t); !ok {
				continue
			}
			slots = append(slots, t)
		}
	}
	return slots
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
