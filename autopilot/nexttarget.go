package autopilot

import (
	"fmt"
	"time"
)

// NextTarget computes the next instant the schedule would actually fire,
// strictly after now. Evaluation happens in the schedule's reference
// timezone; the result is an absolute instant.
//
// The candidate is the next occurrence of the target hour (daily) or the
// target weekday at that hour (weekly, monthly). Occurrences falling in the
// same recurrence period as LastGeneratedAt would be suppressed by the
// decision rules, so they are skipped; a monthly schedule that has not run
// this month can therefore still target a remaining weekday of the current
// month.
func NextTarget(now time.Time, sched *Schedule) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timezone %q", ErrInvalidParams, sched.Timezone)
	}
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		sched.TargetHour, 0, 0, 0, loc)

	step := 7
	if sched.Frequency == FrequencyDaily {
		step = 1
	} else {
		delta := int(sched.TargetDay) - int(local.Weekday())
		if delta < 0 {
			delta += 7
		}
		candidate = candidate.AddDate(0, 0, delta)
	}
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, step)
	}

	if sched.LastGeneratedAt != nil {
		for samePeriod(*sched.LastGeneratedAt, candidate, sched.Frequency, loc) {
			candidate = candidate.AddDate(0, 0, step)
		}
	}
	return candidate, nil
}
