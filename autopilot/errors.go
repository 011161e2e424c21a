package autopilot

import "errors"

// ErrNoSchedule is returned when an operation needs a schedule row that
// does not exist.
var ErrNoSchedule = errors.New("autopilot: no schedule for tenant")

// ErrGenerationInFlight is returned when a generation claim loses to a run
// already in progress.
var ErrGenerationInFlight = errors.New("autopilot: generation already in flight")

// ErrNoKeywords is returned when a tenant's keyword corpus is empty.
var ErrNoKeywords = errors.New("autopilot: keyword corpus is empty")

// ErrInvalidParams is returned when enable parameters fail validation.
var ErrInvalidParams = errors.New("autopilot: invalid schedule parameters")
