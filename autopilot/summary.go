package autopilot

import (
	"context"
	"fmt"
)

// GetSummary reports the fleet-wide automation picture across all tenants.
// The would-fire count reuses the pure decision function; nothing is mutated.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	scheds, err := s.schedules.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("autopilot: list schedules: %w", err)
	}

	sum := &Summary{Total: len(scheds)}
	for _, sched := range scheds {
		if sched.Enabled {
			sum.Enabled++
		}
		switch sched.Status {
		case StatusGenerating:
			sum.Generating++
		case StatusError:
			sum.Errors++
		}
		if sched.Enabled && sched.Status != StatusGenerating &&
			s.decide(sched).ShouldGenerate {
			sum.WouldFire++
		}
	}
	return sum, nil
}
