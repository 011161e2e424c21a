package autopilot

import (
	"context"
	"time"
)

// Status is the per-tenant automation state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Frequency is the recurrence unit.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a supported recurrence unit.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Schedule is one tenant's automation row. The row is created on first
// enable and retained forever; disable only clears the flag.
type Schedule struct {
	Tenant    string    `json:"tenant"`
	Enabled   bool      `json:"enabled"`
	Frequency Frequency `json:"frequency"`
	// Timezone is the IANA reference civil timezone the weekday/hour checks
	// are evaluated in (DST-aware).
	Timezone        string       `json:"timezone"`
	TargetDay       time.Weekday `json:"target_day"`
	TargetHour      int          `json:"target_hour"`
	LastGeneratedAt *time.Time   `json:"last_generated_at,omitempty"`
	NextTargetAt    *time.Time   `json:"next_target_at,omitempty"`
	Status          Status       `json:"status"`
	LastError       string       `json:"last_error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ScheduleStore persists automation schedules.
type ScheduleStore interface {
	// GetSchedule returns (nil, nil) when the tenant has no row.
	GetSchedule(ctx context.Context, tenant string) (*Schedule, error)
	UpsertSchedule(ctx context.Context, s *Schedule) error
	UpdateSchedule(ctx context.Context, s *Schedule) error
	// ClaimGenerating atomically moves the tenant's row to status=generating
	// and reports whether the claim won. false means a generation is already
	// in flight.
	ClaimGenerating(ctx context.Context, tenant string) (bool, error)
	ListSchedules(ctx context.Context) ([]*Schedule, error)
}

// PostRecord is a published post as persisted by the record store.
type PostRecord struct {
	ID              string    `json:"id"`
	Tenant          string    `json:"tenant"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	BodyHTML        string    `json:"body_html"`
	Summary         string    `json:"summary"`
	Tags            []string  `json:"tags"`
	PrimaryTopic    string    `json:"primary_topic"`
	KeywordsFocused []string  `json:"keywords_focused"`
	ContentAngle    string    `json:"content_angle"`
	ContentHash     string    `json:"content_hash"`
	BlogID          string    `json:"blog_id"`
	ArticleID       string    `json:"article_id"`
	URL             string    `json:"url"`
	WordCount       int       `json:"word_count"`
	Source          string    `json:"source"` // "automation" or "manual"
	CreatedAt       time.Time `json:"created_at"`
}

// PostStore persists published posts.
type PostStore interface {
	SavePost(ctx context.Context, rec *PostRecord) (string, error)
}

// Decision is the outcome of a CheckAutomation evaluation. All waiting is
// expressed as ShouldGenerate=false with a reason, to be re-polled later.
type Decision struct {
	ShouldGenerate bool   `json:"should_generate"`
	Reason         string `json:"reason"`
}

// RunResult summarizes one successful generation run.
type RunResult struct {
	PostID      string `json:"post_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint"`
	IsUnique    bool   `json:"is_unique"`
	WordCount   int    `json:"word_count"`
}

// Summary is the fleet-wide automation picture.
type Summary struct {
	Total      int `json:"total"`
	Enabled    int `json:"enabled"`
	Generating int `json:"generating"`
	Errors     int `json:"errors"`
	// WouldFire counts enabled, non-generating schedules whose decision is
	// currently true. Computed without side effects.
	WouldFire int `json:"would_fire"`
}
