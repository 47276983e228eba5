package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	dayFormat  = "Monday, January 2"
	timeFormat = "3:04 PM"
)

// Formatter renders availability results as a single sentence for the voice
// assistant to speak. All times are rendered in the practice timezone.
type Formatter struct {
	loc *time.Location
}

func NewFormatter(loc *time.Location) *Formatter {
	return &Formatter{loc: loc}
}

// Speak turns an availability result into the spoken response.
func (f *Formatter) Speak(a Availability) string {
	if a.Empty() {
		return "I'm sorry, I don't see any open times in that range. Would you like me to check a different date or time?"
	}

	if len(a.Ranked) > 0 && a.RequestedAt != nil {
		return f.speakAlternatives(*a.RequestedAt, a.Ranked)
	}

	return f.speakDays(a.Days)
}

func (f *Formatter) speakAlternatives(requested time.Time, slots []Slot) string {
	alts := make([]string, len(slots))
	for i, s := range slots {
		local := s.StartAt.In(f.loc)
		alts[i] = fmt.Sprintf("%s at %s", local.Format(dayFormat), local.Format(timeFormat))
	}

	return fmt.Sprintf("I don't see availability at exactly %s, but I can offer: %s. Would any of these work?",
		requested.In(f.loc).Format(timeFormat), strings.Join(alts, ", "))
}

func (f *Formatter) speakDays(days []DaySlots) string {
	parts := make([]string, len(days))
	for i, d := range days {
		times := make([]string, len(d.Slots))
		for j, s := range d.Slots {
			times[j] = s.StartAt.In(f.loc).Format(timeFormat)
		}
		parts[i] = fmt.Sprintf("On %s, we have: %s.", d.Day.Format(dayFormat), strings.Join(times, ", "))
	}

	return strings.Join(parts, "; ") + " Would any of these times work for you?"
}

// SpeakConfirmation is the success message for a completed booking.
func (f *Formatter) SpeakConfirmation(name string, startAt time.Time) string {
	local := startAt.In(f.loc)
	return fmt.Sprintf("You're all set, %s. Your appointment is booked for %s at %s.",
		name, local.Format(dayFormat), local.Format(timeFormat))
}
