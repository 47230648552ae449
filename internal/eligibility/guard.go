package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
)

// JobLedger is the read surface the guard needs from the job repository.
// The datastore is consulted fresh on every decision; nothing is cached.
type JobLedger interface {
	CountCreatedSince(ctx context.Context, creatorID int64, since time.Time) (int, error)
	FindInFlightDuplicate(ctx context.Context, creatorID int64, prompt string, since time.Time) (*models.VideoJob, error)
}

type BlockCode string

const (
	BlockNone      BlockCode = ""
	BlockBanned    BlockCode = "banned"
	BlockCooldown  BlockCode = "cooldown"
	BlockQuota     BlockCode = "quota"
	BlockDuplicate BlockCode = "duplicate"
)

// Decision is the outcome of an eligibility check. DuplicateJobID is set
// only for BlockDuplicate.
type Decision struct {
	Allowed        bool
	Code           BlockCode
	Reason         string
	CooldownUntil  *time.Time
	DuplicateJobID string
}

// Guard runs the pre-flight checks for a video request: ban, cooldown,
// daily quota (calendar day in the campaign timezone), and duplicate
// prompt in flight. Pure reads, no side effects; the race between this
// check and reservation is closed by the ledger's conditional insert.
type Guard struct {
	ledger   JobLedger
	location *time.Location
	dailyMax int
	now      func() time.Time
}

func NewGuard(ledger JobLedger, timezone string, dailyMax int) (*Guard, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load campaign timezone: %w", err)
	}
	return &Guard{
		ledger:   ledger,
		location: loc,
		dailyMax: dailyMax,
		now:      time.Now,
	}, nil
}

func (g *Guard) Check(ctx context.Context, creator models.Creator, prompt string) (Decision, error) {
	now := g.now()

	if creator.Banned {
		return Decision{
			Code:   BlockBanned,
			Reason: "you are banned from the campaign",
		}, nil
	}

	if creator.InCooldown(now) {
		until := *creator.CooldownUntil
		return Decision{
			Code:          BlockCooldown,
			Reason:        fmt.Sprintf("you are in cooldown until %s", until.In(g.location).Format("02/01/2006 15:04")),
			CooldownUntil: &until,
		}, nil
	}

	dayStart := g.startOfDay(now)
	createdToday, err := g.ledger.CountCreatedSince(ctx, creator.TGUserID, dayStart)
	if err != nil {
		return Decision{}, fmt.Errorf("count jobs today: %w", err)
	}
	if createdToday >= g.dailyMax {
		return Decision{
			Code:   BlockQuota,
			Reason: fmt.Sprintf("daily limit reached (%d videos/day)", g.dailyMax),
		}, nil
	}

	existing, err := g.ledger.FindInFlightDuplicate(ctx, creator.TGUserID, prompt, now.Add(-24*time.Hour))
	if err != nil {
		return Decision{}, fmt.Errorf("duplicate lookup: %w", err)
	}
	if existing != nil {
		verb := "created"
		if existing.Status == models.JobStatusPending {
			verb = "being generated"
		}
		return Decision{
			Code:           BlockDuplicate,
			Reason:         fmt.Sprintf("a video for this exact prompt is already %s (job %s); try a different prompt", verb, existing.ID),
			DuplicateJobID: existing.ID,
		}, nil
	}

	return Decision{Allowed: true}, nil
}

// startOfDay is midnight of the current calendar day in the campaign
// timezone, which is where the daily quota resets.
func (g *Guard) startOfDay(now time.Time) time.Time {
	local := now.In(g.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.location)
}
