package flow

import (
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/eligibility"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/models"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/moderation"
)

type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeRejected    OutcomeKind = "rejected"
	OutcomeBlocked     OutcomeKind = "blocked"
	OutcomeDuplicate   OutcomeKind = "duplicate"
	OutcomeUnavailable OutcomeKind = "unavailable"
	OutcomeTimeout     OutcomeKind = "timeout"
	OutcomeInternal    OutcomeKind = "internal"
)

// Outcome is the single answer of a video request. Exactly one of the
// detail fields is populated, matching Kind: Job on success, Validation on
// rejection, Block when a pre-flight check failed, DuplicateJob when an
// equivalent request is already in flight.
type Outcome struct {
	Kind         OutcomeKind
	Job          *models.VideoJob
	Validation   *moderation.ValidationResult
	Block        *eligibility.Decision
	DuplicateJob *models.VideoJob
	Message      string
}
