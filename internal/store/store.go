package store

import (
	"context"
	"errors"

	"github.com/pkarpov/verity/internal/model"
)

// ErrNotFound is returned when the requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a write-once record is written twice
var ErrAlreadyExists = errors.New("already exists")

// Store persists claims and verification results. Verification results are
// write-once: the first completed pipeline run wins, which keeps results
// stable under queue redelivery.
type Store interface {
	// SaveClaim persists a new claim and indexes it under its user
	SaveClaim(ctx context.Context, claim *model.Claim) error

	// GetClaim loads a claim by ID; ErrNotFound if absent
	GetClaim(ctx context.Context, id string) (*model.Claim, error)

	// UpdateClaim overwrites an existing claim's record
	UpdateClaim(ctx context.Context, claim *model.Claim) error

	// SaveVerification persists a verification result exactly once.
	// Returns ErrAlreadyExists if a result for the claim is already stored.
	SaveVerification(ctx context.Context, result *model.VerificationResult) error

	// GetVerification loads a verification result by claim ID
	GetVerification(ctx context.Context, claimID string) (*model.VerificationResult, error)

	// ListUserClaims returns a page of the user's claims, newest first,
	// along with the total count.
	ListUserClaims(ctx context.Context, userID string, offset, limit int) ([]model.ClaimSummary, int64, error)

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend connections
	Close() error
}
