package autopilot

import (
	"context"
	"fmt"
	"time"
)

// CheckAutomation is the pure decision function: should unattended
// generation fire for this tenant right now. It never mutates state.
func (s *Service) CheckAutomation(ctx context.Context, tenant string) (Decision, error) {
	sched, err := s.schedules.GetSchedule(ctx, tenant)
	if err != nil {
		return Decision{}, fmt.Errorf("autopilot: load schedule: %w", err)
	}
	return s.decide(sched), nil
}

// decide evaluates the ordered decision rules against a schedule row.
func (s *Service) decide(sched *Schedule) Decision {
	if sched == nil {
		return Decision{Reason: "no schedule"}
	}
	if !sched.Enabled {
		return Decision{Reason: "automation disabled"}
	}
	if sched.Status == StatusGenerating {
		return Decision{Reason: "generation in flight"}
	}

	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		return Decision{Reason: fmt.Sprintf("bad timezone %q", sched.Timezone)}
	}
	now := s.now().In(loc)

	// Daily schedules fire on any weekday; the day-period suppression below
	// already limits them to once per day.
	if sched.Frequency != FrequencyDaily && now.Weekday() != sched.TargetDay {
		return Decision{Reason: fmt.Sprintf("today is %s, target is %s",
			now.Weekday(), sched.TargetDay)}
	}
	if now.Hour() < sched.TargetHour {
		return Decision{Reason: fmt.Sprintf("hour %d before target %d",
			now.Hour(), sched.TargetHour)}
	}
	if sched.LastGeneratedAt != nil &&
		samePeriod(*sched.LastGeneratedAt, now, sched.Frequency, loc) {
		return Decision{Reason: "already generated this " + periodName(sched.Frequency)}
	}
	return Decision{ShouldGenerate: true, Reason: "due"}
}

// periodStart returns the start of the recurrence period containing t,
// evaluated in loc. For weekly that is the most recent Sunday 00:00.
func periodStart(t time.Time, freq Frequency, loc *time.Location) time.Time {
	t = t.In(loc)
	switch freq {
	case FrequencyDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case FrequencyMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	default: // weekly
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		return midnight.AddDate(0, 0, -int(t.Weekday()))
	}
}

// samePeriod reports whether a and b fall in the same recurrence period.
func samePeriod(a, b time.Time, freq Frequency, loc *time.Location) bool {
	return periodStart(a, freq, loc).Equal(periodStart(b, freq, loc))
}

func periodName(freq Frequency) string {
	switch freq {
	case FrequencyDaily:
		return "day"
	case FrequencyMonthly:
		return "month"
	default:
		return "week"
	}
}
