package schedule

import (
	"sort"
	"time"
)

// Display limits for voice responses: a caller can hold about three options
// in mind, across at most three days.
const (
	maxRankedSlots = 3
	maxDays        = 3
	maxSlotsPerDay = 3
)

// Resolver cross-references the slot grid against existing bookings to
// produce the free-slot set for a window.
type Resolver struct {
	grid *SlotGrid
	loc  *time.Location
}

func NewResolver(grid *SlotGrid, loc *time.Location) *Resolver {
	return &Resolver{grid: grid, loc: loc}
}

// Resolve computes availability for the window. booked holds the start
// instants of non-cancelled appointments within the window's day span.
//
// A narrow window (under one hour) means the caller asked about one specific
// time: the nearest free slots to the window midpoint are returned, ranked by
// absolute distance. Otherwise free slots are grouped by practice-local day.
func (r *Resolver) Resolve(window AvailabilityWindow, booked []time.Time) Availability {
	window = window.Normalize()

	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Unix()] = struct{}{}
	}

	var free []Slot
	for _, start := range r.grid.Generate(window.Start, window.End) {
		if _, ok := taken[start.Unix()]; ok {
			continue
		}
		free = append(free, Slot{StartAt: start, Duration: SlotDuration})
	}

	if len(free) == 0 {
		// Zero free slots and zero eligible days both resolve to the empty
		// result; the formatter words them identically.
		return Availability{RequestedAt: window.RequestedAt}
	}

	if window.RequestedAt != nil {
		return Availability{
			RequestedAt: window.RequestedAt,
			Ranked:      rankByProximity(free, *window.RequestedAt),
		}
	}

	return Availability{Days: groupByDay(free, r.loc)}
}

// rankByProximity returns the free slots nearest to requested, closest
// first, ignoring day grouping.
func rankByProximity(free []Slot, requested time.Time) []Slot {
	ranked := make([]Slot, len(free))
	copy(ranked, free)

	sort.SliceStable(ranked, func(i, j int) bool {
		di := absDuration(ranked[i].StartAt.Sub(requested))
		dj := absDuration(ranked[j].StartAt.Sub(requested))
		if di != dj {
			return di < dj
		}
		return ranked[i].StartAt.Before(ranked[j].StartAt)
	})

	if len(ranked) > maxRankedSlots {
		ranked = ranked[:maxRankedSlots]
	}
	return ranked
}

// groupByDay buckets free slots by practice-local calendar day, truncated to
// the first days with availability and the earliest slots within each.
func groupByDay(free []Slot, loc *time.Location) []DaySlots {
	byDay := make(map[time.Time][]Slot)
	for _, s := range free {
		day := dayStart(s.StartAt.In(loc))
		byDay[day] = append(byDay[day], s)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if len(days) > maxDays {
		days = days[:maxDays]
	}

	var grouped []DaySlots
	for _, day := range days {
		slots := byDay[day]
		sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt.Before(slots[j].StartAt) })
		if len(slots) > maxSlotsPerDay {
			slots = slots[:maxSlotsPerDay]
		}
		grouped = append(grouped, DaySlots{Day: day, Slots: slots})
	}
	return grouped
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
