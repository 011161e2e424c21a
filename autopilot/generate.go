package autopilot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/veltaire/plume/observability"
	"github.com/veltaire/plume/publish"
	"github.com/veltaire/plume/textgen"
)

// GenerateAutomatedBlog runs one unattended generation for the tenant:
// corpus, unique prompt, text generation, publish, persist, reschedule —
// strictly in that order, with no internal retry. Any stage failure leaves
// the schedule in status=error with a human-readable reason.
func (s *Service) GenerateAutomatedBlog(ctx context.Context, tenant string) (*RunResult, error) {
	sched, err := s.schedules.GetSchedule(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: load schedule: %w", err)
	}
	if sched == nil {
		return nil, ErrNoSchedule
	}

	claimed, err := s.schedules.ClaimGenerating(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: claim generation: %w", err)
	}
	if !claimed {
		return nil, ErrGenerationInFlight
	}

	result, err := s.runPipeline(ctx, tenant, "automation")
	if err != nil {
		s.failSchedule(ctx, sched, err)
		s.events.LogEvent(ctx, observability.Event{
			EventType: "automation_run", Tenant: tenant, EntityType: "post",
			Action: "generate", Details: fmt.Sprintf(`{"error":%q}`, err.Error()),
		})
		return nil, err
	}

	now := s.now()
	sched.LastGeneratedAt = &now
	sched.Status = StatusCompleted
	sched.LastError = ""
	sched.UpdatedAt = now
	if next, nerr := NextTarget(now, sched); nerr == nil {
		sched.NextTargetAt = &next
	}
	if uerr := s.schedules.UpdateSchedule(ctx, sched); uerr != nil {
		// The post is already published and recorded; only the reschedule
		// bookkeeping failed.
		s.logger.Error("autopilot: reschedule update failed",
			"tenant", tenant, "error", uerr)
		return result, fmt.Errorf("autopilot: update schedule: %w", uerr)
	}

	s.logger.Info("autopilot: automated post published",
		"tenant", tenant, "post_id", result.PostID, "slug", result.Slug,
		"unique", result.IsUnique)
	s.events.LogEvent(ctx, observability.Event{
		EventType: "automation_run", Tenant: tenant, EntityType: "post",
		EntityID: result.PostID, Action: "generate", Success: true,
	})
	return result, nil
}

// GenerateOnDemand runs the same pipeline for the synchronous user-triggered
// path. It touches no schedule state; rate limiting happens at the HTTP
// boundary, which rolls back the budget unit when this returns an error.
func (s *Service) GenerateOnDemand(ctx context.Context, tenant string) (*RunResult, error) {
	result, err := s.runPipeline(ctx, tenant, "manual")
	if err != nil {
		return nil, err
	}
	s.events.LogEvent(ctx, observability.Event{
		EventType: "manual_run", Tenant: tenant, EntityType: "post",
		EntityID: result.PostID, Action: "generate", Success: true,
	})
	return result, nil
}

// runPipeline executes corpus → prompt → generate → publish → persist.
func (s *Service) runPipeline(ctx context.Context, tenant, source string) (*RunResult, error) {
	corpus, err := s.keywords.Keywords(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: aggregate keywords: %w", err)
	}
	if corpus.Empty() {
		return nil, ErrNoKeywords
	}

	prompt, err := s.topics.UniquePrompt(ctx, tenant, corpus)
	if err != nil {
		return nil, fmt.Errorf("autopilot: generate prompt: %w", err)
	}
	if !prompt.IsUnique {
		s.logger.Warn("autopilot: publishing fallback prompt",
			"tenant", tenant, "topic", prompt.Topic)
	}

	content, err := s.gen.Generate(ctx, textgen.Request{
		Prompt:         prompt,
		KeywordContext: corpus.All,
		StoreURL:       s.config.StoreURL,
	})
	if err != nil {
		return nil, fmt.Errorf("autopilot: text generation: %w", err)
	}

	receipt, err := s.publisher.Publish(ctx, tenant, &publish.Post{
		Title:    content.Title,
		BodyHTML: content.BodyHTML,
		Summary:  content.Summary,
		Slug:     prompt.Slug,
		Tags:     content.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("autopilot: publish: %w", err)
	}

	rec := &PostRecord{
		ID:              "post_" + uuid.Must(uuid.NewV7()).String(),
		Tenant:          tenant,
		Title:           content.Title,
		Slug:            prompt.Slug,
		BodyHTML:        content.BodyHTML,
		Summary:         content.Summary,
		Tags:            content.Tags,
		PrimaryTopic:    prompt.Topic,
		KeywordsFocused: prompt.Keywords,
		ContentAngle:    string(prompt.Angle),
		ContentHash:     prompt.Fingerprint,
		BlogID:          receipt.BlogID,
		ArticleID:       receipt.ArticleID,
		URL:             receipt.URL,
		WordCount:       content.WordCount,
		Source:          source,
		CreatedAt:       s.now(),
	}
	postID, err := s.posts.SavePost(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("autopilot: save post: %w", err)
	}

	return &RunResult{
		PostID:      postID,
		Title:       content.Title,
		Slug:        prompt.Slug,
		URL:         receipt.URL,
		Fingerprint: prompt.Fingerprint,
		IsUnique:    prompt.IsUnique,
		WordCount:   content.WordCount,
	}, nil
}

// failSchedule records a terminal error status with the failure reason.
func (s *Service) failSchedule(ctx context.Context, sched *Schedule, cause error) {
	sched.Status = StatusError
	sched.LastError = cause.Error()
	sched.UpdatedAt = s.now()
	if err := s.schedules.UpdateSchedule(ctx, sched); err != nil {
		s.logger.Error("autopilot: error status update failed",
			"tenant", sched.Tenant, "error", err)
	}
}
