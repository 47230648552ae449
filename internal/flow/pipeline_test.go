package flow

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/caption"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/eligibility"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/moderation"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/openai"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/relocate"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
)

type stubCreators struct{}

func (stubCreators) GetOrCreate(ctx context.Context, tgUserID int64, username, displayName string) (models.Creator, error) {
	return models.Creator{TGUserID: tgUserID, Username: username}, nil
}

type stubGuard struct {
	decision eligibility.Decision
}

func (g stubGuard) Check(ctx context.Context, creator models.Creator, prompt string) (eligibility.Decision, error) {
	return g.decision, nil
}

type stubValidator struct {
	result moderation.ValidationResult
}

func (v stubValidator) Validate(ctx context.Context, prompt string) (moderation.ValidationResult, error) {
	return v.result, nil
}

// memJobs mimics the ledger's conditional insert: at most one pending row
// per (creator, prompt) at a time.
type memJobs struct {
	mu       sync.Mutex
	nextID   int
	jobs     map[string]*models.VideoJob
	inFlight map[string]string

	reserveCalls  int
	readyCalls    int
	failedCalls   int
	lastFinalized repository.FinalizeReadyParams
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[string]*models.VideoJob), inFlight: make(map[string]string)}
}

func (m *memJobs) key(creatorID int64, prompt string) string {
	return repository.PromptHash(prompt) + "|" + string(rune(creatorID))
}

func (m *memJobs) ReservePending(ctx context.Context, creatorID int64, prompt, category string, durationSeconds int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	k := m.key(creatorID, prompt)
	if existing, ok := m.inFlight[k]; ok {
		return "", &repository.DuplicateJobError{ExistingJobID: existing, Status: models.JobStatusPending}
	}
	m.nextID++
	id := string(rune('a' + m.nextID))
	m.inFlight[k] = id
	m.jobs[id] = &models.VideoJob{ID: id, CreatorID: creatorID, Prompt: prompt, Category: category, Status: models.JobStatusPending}
	return id, nil
}

func (m *memJobs) FinalizeReady(ctx context.Context, jobID string, params repository.FinalizeReadyParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyCalls++
	job := m.jobs[jobID]
	if job == nil || job.Status != models.JobStatusPending {
		return &repository.InvalidTransitionError{JobID: jobID, To: models.JobStatusReady}
	}
	job.Status = models.JobStatusReady
	job.VideoURL = &params.AssetURL
	job.URLDurable = params.URLDurable
	job.Caption = params.Caption
	m.lastFinalized = params
	m.release(job)
	return nil
}

func (m *memJobs) FinalizeFailed(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedCalls++
	job := m.jobs[jobID]
	if job == nil {
		return repository.ErrJobNotFound
	}
	if job.Status == models.JobStatusFailed {
		return nil
	}
	if job.Status != models.JobStatusPending {
		return &repository.InvalidTransitionError{JobID: jobID, From: job.Status, To: models.JobStatusFailed}
	}
	job.Status = models.JobStatusFailed
	m.release(job)
	return nil
}

func (m *memJobs) release(job *models.VideoJob) {
	delete(m.inFlight, m.key(job.CreatorID, job.Prompt))
}

func (m *memJobs) GetByID(ctx context.Context, jobID string) (models.VideoJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[jobID]
	if job == nil {
		return models.VideoJob{}, repository.ErrJobNotFound
	}
	return *job, nil
}

type stubGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	release chan struct{}
}

func (g *stubGenerator) GenerateVideo(ctx context.Context, prompt, category string, durationSeconds int, onProgress openai.ProgressFunc) (openai.GenerateResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return openai.GenerateResult{}, g.err
	}
	return openai.GenerateResult{
		Asset:          openai.AssetRef{ProviderJobID: "vj_test", ContentURL: "https://provider/asset"},
		EnhancedPrompt: prompt + " enhanced",
		ActualDuration: durationSeconds,
	}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubPersister struct {
	result relocate.Result
}

func (p stubPersister) Persist(ctx context.Context, asset openai.AssetRef) (relocate.Result, error) {
	if p.result.VideoURL == "" {
		return relocate.Result{VideoURL: "https://cdn/asset.mp4", Durable: true}, nil
	}
	return p.result, nil
}

type stubComposer struct{}

func (stubComposer) Compose(ctx context.Context, prompt, category string) caption.Caption {
	return caption.Caption{Caption: "nice video", Hashtags: "#Ethereum"}
}

func approvedValidation() moderation.ValidationResult {
	return moderation.ValidationResult{Approved: true, Category: moderation.DefaultCategory, Confidence: 0.9}
}

func newTestPipeline(jobs *memJobs, gen *stubGenerator, guard eligibility.Decision, validation moderation.ValidationResult) *Pipeline {
	return NewPipeline(PipelineParams{
		Creators:  stubCreators{},
		Jobs:      jobs,
		Guard:     stubGuard{decision: guard},
		Validator: stubValidator{result: validation},
		Generator: gen,
		Persister: stubPersister{},
		Composer:  stubComposer{},
		Logger:    zerolog.Nop(),
	})
}

func TestCreateVideoHappyPath(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{}
	p := newTestPipeline(jobs, gen, eligibility.Decision{Allowed: true}, approvedValidation())

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "stablecoin payments explainer", DurationSeconds: 8})

	if out.Kind != OutcomeSuccess {
		t.Fatalf("kind = %s, want success (%s)", out.Kind, out.Message)
	}
	if out.Job == nil || out.Job.Status != models.JobStatusReady {
		t.Fatalf("expected ready job, got %+v", out.Job)
	}
	if gen.callCount() != 1 {
		t.Fatalf("generator called %d times, want 1", gen.callCount())
	}
	if !jobs.lastFinalized.URLDurable {
		t.Fatal("expected durable url on happy path")
	}
}

func TestCreateVideoSubmitsAtMostOnceForConcurrentDuplicates(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{release: make(chan struct{})}
	p := newTestPipeline(jobs, gen, eligibility.Decision{Allowed: true}, approvedValidation())

	const prompt = "defi yield basics"
	outcomes := make(chan Outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- p.CreateVideo(context.Background(), Request{TGUserID: 42, Prompt: prompt})
		}()
	}

	// Both requests have passed reservation (or lost it) once the winner
	// is blocked inside the generator.
	for {
		jobs.mu.Lock()
		calls := jobs.reserveCalls
		jobs.mu.Unlock()
		if calls >= 2 {
			break
		}
		runtime.Gosched()
	}
	close(gen.release)
	wg.Wait()
	close(outcomes)

	var success, duplicate int
	for out := range outcomes {
		switch out.Kind {
		case OutcomeSuccess:
			success++
		case OutcomeDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected outcome %s: %s", out.Kind, out.Message)
		}
	}
	if success != 1 || duplicate != 1 {
		t.Fatalf("got %d success / %d duplicate, want 1/1", success, duplicate)
	}
	if gen.callCount() != 1 {
		t.Fatalf("provider submissions = %d, want exactly 1", gen.callCount())
	}
}

func TestCreateVideoRejectionNeverReserves(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{}
	rejected := moderation.ValidationResult{Approved: false, Reason: "off topic", Confidence: 0.8}
	p := newTestPipeline(jobs, gen, eligibility.Decision{Allowed: true}, rejected)

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "cat memes"})

	if out.Kind != OutcomeRejected {
		t.Fatalf("kind = %s, want rejected", out.Kind)
	}
	if jobs.reserveCalls != 0 {
		t.Fatalf("reservation ran %d times for a rejected prompt", jobs.reserveCalls)
	}
	if gen.callCount() != 0 {
		t.Fatal("generator must not run for a rejected prompt")
	}
}

func TestCreateVideoBlockedNeverReserves(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{}
	blocked := eligibility.Decision{Allowed: false, Code: eligibility.BlockQuota, Reason: "daily limit reached"}
	p := newTestPipeline(jobs, gen, blocked, approvedValidation())

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "anything"})

	if out.Kind != OutcomeBlocked {
		t.Fatalf("kind = %s, want blocked", out.Kind)
	}
	if jobs.reserveCalls != 0 || gen.callCount() != 0 {
		t.Fatal("blocked request must not reserve or generate")
	}
}

func TestCreateVideoGenerationFailureMarksJobFailed(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{err: &openai.UnavailableError{Op: "submit", Err: errors.New("503")}}
	p := newTestPipeline(jobs, gen, eligibility.Decision{Allowed: true}, approvedValidation())

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "layer2 rollups"})

	if out.Kind != OutcomeUnavailable {
		t.Fatalf("kind = %s, want unavailable", out.Kind)
	}
	if jobs.failedCalls != 1 {
		t.Fatalf("FinalizeFailed calls = %d, want 1", jobs.failedCalls)
	}
	if jobs.readyCalls != 0 {
		t.Fatal("failed generation must never finalize ready")
	}
	for _, job := range jobs.jobs {
		if job.Status != models.JobStatusFailed {
			t.Fatalf("job left in %s, want failed", job.Status)
		}
	}
}

func TestCreateVideoTimeoutIsDistinctOutcome(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{err: &openai.TimeoutError{Attempts: 60}}
	p := newTestPipeline(jobs, gen, eligibility.Decision{Allowed: true}, approvedValidation())

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "multi chain wallets"})

	if out.Kind != OutcomeTimeout {
		t.Fatalf("kind = %s, want timeout", out.Kind)
	}
	if jobs.failedCalls != 1 {
		t.Fatalf("FinalizeFailed calls = %d, want 1", jobs.failedCalls)
	}
}

func TestCreateVideoDegradedStorageStillSucceeds(t *testing.T) {
	jobs := newMemJobs()
	gen := &stubGenerator{}
	p := NewPipeline(PipelineParams{
		Creators:  stubCreators{},
		Jobs:      jobs,
		Guard:     stubGuard{decision: eligibility.Decision{Allowed: true}},
		Validator: stubValidator{result: approvedValidation()},
		Generator: gen,
		Persister: stubPersister{result: relocate.Result{VideoURL: "https://provider/asset", Durable: false}},
		Composer:  stubComposer{},
		Logger:    zerolog.Nop(),
	})

	out := p.CreateVideo(context.Background(), Request{TGUserID: 7, Prompt: "onchain culture"})

	if out.Kind != OutcomeSuccess {
		t.Fatalf("kind = %s, want success", out.Kind)
	}
	if jobs.lastFinalized.URLDurable {
		t.Fatal("degraded storage must finalize with url_durable = false")
	}
	if jobs.lastFinalized.AssetURL != "https://provider/asset" {
		t.Fatalf("asset url = %q, want provider fallback", jobs.lastFinalized.AssetURL)
	}
}
