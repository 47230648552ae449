package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/caption"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/eligibility"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/moderation"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/openai"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/relocate"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
)

// CreatorStore registers and refreshes creator identity rows.
type CreatorStore interface {
	GetOrCreate(ctx context.Context, tgUserID int64, username, displayName string) (models.Creator, error)
}

// JobStore is the lifecycle surface of the reservation ledger. ReservePending
// must insert the row before any external submission happens so a crashed
// process never leaves an untracked paid job.
type JobStore interface {
	ReservePending(ctx context.Context, creatorID int64, prompt, category string, durationSeconds int) (string, error)
	FinalizeReady(ctx context.Context, jobID string, params repository.FinalizeReadyParams) error
	FinalizeFailed(ctx context.Context, jobID string) error
	GetByID(ctx context.Context, jobID string) (models.VideoJob, error)
}

type PromptValidator interface {
	Validate(ctx context.Context, prompt string) (moderation.ValidationResult, error)
}

type EligibilityGuard interface {
	Check(ctx context.Context, creator models.Creator, prompt string) (eligibility.Decision, error)
}

type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt, category string, durationSeconds int, onProgress openai.ProgressFunc) (openai.GenerateResult, error)
}

type AssetPersister interface {
	Persist(ctx context.Context, asset openai.AssetRef) (relocate.Result, error)
}

type CaptionComposer interface {
	Compose(ctx context.Context, prompt, category string) caption.Caption
}

// Request is one creator asking for one video. Notify, when set, receives
// human-readable progress lines while generation runs; it is called from a
// separate goroutine and must be safe for that.
type Request struct {
	TGUserID        int64
	Username        string
	DisplayName     string
	Prompt          string
	DurationSeconds int
	Notify          func(text string)
}

type Pipeline struct {
	creators  CreatorStore
	jobs      JobStore
	guard     EligibilityGuard
	validator PromptValidator
	generator VideoGenerator
	persister AssetPersister
	composer  CaptionComposer

	defaultDuration int
	narrateInterval time.Duration
	log             zerolog.Logger
}

type PipelineParams struct {
	Creators  CreatorStore
	Jobs      JobStore
	Guard     EligibilityGuard
	Validator PromptValidator
	Generator VideoGenerator
	Persister AssetPersister
	Composer  CaptionComposer

	DefaultDuration int
	Logger          zerolog.Logger
}

func NewPipeline(p PipelineParams) *Pipeline {
	defaultDuration := p.DefaultDuration
	if defaultDuration <= 0 {
		defaultDuration = 12
	}
	return &Pipeline{
		creators:        p.Creators,
		jobs:            p.Jobs,
		guard:           p.Guard,
		validator:       p.Validator,
		generator:       p.Generator,
		persister:       p.Persister,
		composer:        p.Composer,
		defaultDuration: defaultDuration,
		narrateInterval: 20 * time.Second,
		log:             p.Logger,
	}
}

// CreateVideo runs the whole request: eligibility, content validation,
// reservation, generation with bounded polling, relocation to durable
// storage, caption, finalization. It never returns an error; every failure
// mode is a typed Outcome so the chat layer can phrase it.
func (p *Pipeline) CreateVideo(ctx context.Context, req Request) (out Outcome) {
	var reservedJobID string

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Int64("tg_user_id", req.TGUserID).
				Msg("video pipeline panicked")
			if reservedJobID != "" {
				p.failJob(reservedJobID)
			}
			out = Outcome{Kind: OutcomeInternal, Message: "something broke on our side, please try again"}
		}
	}()

	creator, err := p.creators.GetOrCreate(ctx, req.TGUserID, req.Username, req.DisplayName)
	if err != nil {
		p.log.Error().Err(err).Int64("tg_user_id", req.TGUserID).Msg("creator upsert failed")
		return Outcome{Kind: OutcomeInternal, Message: "could not load your creator profile"}
	}

	decision, err := p.guard.Check(ctx, creator, req.Prompt)
	if err != nil {
		p.log.Error().Err(err).Int64("tg_user_id", req.TGUserID).Msg("eligibility check failed")
		return Outcome{Kind: OutcomeInternal, Message: "could not verify your eligibility"}
	}
	if !decision.Allowed {
		return Outcome{Kind: blockKind(decision), Block: &decision, Message: decision.Reason}
	}

	validation, err := p.validator.Validate(ctx, req.Prompt)
	if err != nil {
		p.log.Error().Err(err).Int64("tg_user_id", req.TGUserID).Msg("prompt validation failed")
		return Outcome{Kind: OutcomeInternal, Message: "could not validate your prompt"}
	}
	if !validation.Approved {
		return Outcome{Kind: OutcomeRejected, Validation: &validation, Message: validation.Reason}
	}

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = p.defaultDuration
	}

	// Reserve before submitting. The conditional insert is what makes a
	// concurrent duplicate lose: exactly one of two identical in-flight
	// requests gets a row, and only row holders talk to the provider.
	jobID, err := p.jobs.ReservePending(ctx, creator.TGUserID, req.Prompt, validation.Category, duration)
	if err != nil {
		var dup *repository.DuplicateJobError
		if errors.As(err, &dup) {
			return p.duplicateOutcome(ctx, dup)
		}
		p.log.Error().Err(err).Int64("tg_user_id", req.TGUserID).Msg("job reservation failed")
		return Outcome{Kind: OutcomeInternal, Message: "could not register your request"}
	}
	reservedJobID = jobID

	p.log.Info().Str("job_id", jobID).Int64("tg_user_id", req.TGUserID).
		Str("category", validation.Category).Int("duration_seconds", duration).
		Msg("job reserved, starting generation")

	var progress atomic.Int64
	stopNarrator := p.startNarrator(ctx, req.Notify, &progress)

	result, err := p.generator.GenerateVideo(ctx, req.Prompt, validation.Category, duration, func(attempt, percent int) {
		progress.Store(int64(percent))
	})
	stopNarrator()
	if err != nil {
		p.failJob(jobID)
		return p.generationOutcome(jobID, err)
	}

	persisted, err := p.persister.Persist(ctx, result.Asset)
	if err != nil {
		p.failJob(jobID)
		p.log.Error().Err(err).Str("job_id", jobID).Msg("asset persistence aborted")
		return Outcome{Kind: OutcomeInternal, Message: "your video was generated but we lost it, please try again"}
	}

	composed := p.composer.Compose(ctx, req.Prompt, validation.Category)

	err = p.jobs.FinalizeReady(ctx, jobID, repository.FinalizeReadyParams{
		AssetURL:       persisted.VideoURL,
		ThumbnailURL:   persisted.ThumbnailURL,
		URLDurable:     persisted.Durable,
		ProviderJobID:  result.Asset.ProviderJobID,
		EnhancedPrompt: result.EnhancedPrompt,
		ActualDuration: result.ActualDuration,
		Caption:        composed.Caption,
		Hashtags:       composed.Hashtags,
	})
	if err != nil {
		var invalid *repository.InvalidTransitionError
		if errors.As(err, &invalid) {
			p.log.Error().Str("job_id", jobID).Str("from", string(invalid.From)).
				Msg("finalize hit a job no longer pending")
		} else {
			p.log.Error().Err(err).Str("job_id", jobID).Msg("finalize ready failed")
		}
		return Outcome{Kind: OutcomeInternal, Message: "your video is ready but we could not record it"}
	}

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		p.log.Error().Err(err).Str("job_id", jobID).Msg("reload of finalized job failed")
		job = models.VideoJob{ID: jobID, Status: models.JobStatusReady, VideoURL: &persisted.VideoURL}
	}
	return Outcome{Kind: OutcomeSuccess, Job: &job}
}

func blockKind(d eligibility.Decision) OutcomeKind {
	if d.Code == eligibility.BlockDuplicate {
		return OutcomeDuplicate
	}
	return OutcomeBlocked
}

func (p *Pipeline) duplicateOutcome(ctx context.Context, dup *repository.DuplicateJobError) Outcome {
	out := Outcome{
		Kind:    OutcomeDuplicate,
		Message: "you already asked for this video, hold on",
	}
	if dup.ExistingJobID != "" {
		if job, err := p.jobs.GetByID(ctx, dup.ExistingJobID); err == nil {
			out.DuplicateJob = &job
		}
	}
	return out
}

func (p *Pipeline) generationOutcome(jobID string, err error) Outcome {
	switch {
	case openai.IsTimeout(err):
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("generation timed out")
		return Outcome{Kind: OutcomeTimeout, Message: "the video is taking too long, the request was cancelled"}
	case openai.IsUnavailable(err):
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("video provider unavailable")
		return Outcome{Kind: OutcomeUnavailable, Message: "the video service is unavailable right now, try again later"}
	default:
		p.log.Error().Err(err).Str("job_id", jobID).Msg("generation failed")
		return Outcome{Kind: OutcomeInternal, Message: "video generation failed, please try again"}
	}
}

// failJob is best effort; a job stuck in pending is repaired by the
// idempotent FinalizeFailed on the next attempt surfacing it. Uses a fresh
// context so a cancelled request still records the failure.
func (p *Pipeline) failJob(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.jobs.FinalizeFailed(ctx, jobID); err != nil {
		p.log.Error().Err(err).Str("job_id", jobID).Msg("could not mark job failed")
	}
}

var narratorLines = []string{
	"🎬 Rolling... the model is sketching your scenes",
	"🎥 Still rendering, good frames take a moment",
	"✨ Adding the final touches to your video",
	"⏳ Almost there, encoding the result",
}

// startNarrator emits a progress line on a fixed cadence while generation
// runs. The goroutine is scoped to the request: the returned stop function
// cancels it and waits for it to exit.
func (p *Pipeline) startNarrator(ctx context.Context, notify func(string), progress *atomic.Int64) func() {
	if notify == nil {
		return func() {}
	}

	narratorCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.narrateInterval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-narratorCtx.Done():
				return
			case <-ticker.C:
				line := narratorLines[i%len(narratorLines)]
				if pct := progress.Load(); pct > 0 {
					line = fmt.Sprintf("%s (%d%%)", line, pct)
				}
				notify(line)
				i++
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
