package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkarpov/verity/internal/model"
)

// MemoryStore is an in-process Store for the one-shot CLI path and tests.
// Semantics match RedisStore, including write-once verifications.
type MemoryStore struct {
	mu            sync.RWMutex
	claims        map[string]model.Claim
	verifications map[string]model.VerificationResult
	userClaims    map[string][]string // userID -> claim IDs in insertion order
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims:        make(map[string]model.Claim),
		verifications: make(map[string]model.VerificationResult),
		userClaims:    make(map[string][]string),
	}
}

// SaveClaim persists a new claim and indexes it under its user
func (s *MemoryStore) SaveClaim(ctx context.Context, claim *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ID]; exists {
		return ErrAlreadyExists
	}
	s.claims[claim.ID] = *claim
	if claim.UserID != "" {
		s.userClaims[claim.UserID] = append(s.userClaims[claim.UserID], claim.ID)
	}
	return nil
}

// GetClaim loads a claim by ID
func (s *MemoryStore) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, exists := s.claims[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &claim, nil
}

// UpdateClaim overwrites an existing claim's record
func (s *MemoryStore) UpdateClaim(ctx context.Context, claim *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ID]; !exists {
		return ErrNotFound
	}
	s.claims[claim.ID] = *claim
	return nil
}

// SaveVerification persists a verification result exactly once
func (s *MemoryStore) SaveVerification(ctx context.Context, result *model.VerificationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.verifications[result.ClaimID]; exists {
		return ErrAlreadyExists
	}
	s.verifications[result.ClaimID] = *result
	return nil
}

// GetVerification loads a verification result by claim ID
func (s *MemoryStore) GetVerification(ctx context.Context, claimID string) (*model.VerificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.verifications[claimID]
	if !exists {
		return nil, ErrNotFound
	}
	return &result, nil
}

// ListUserClaims returns a page of the user's claims, newest first
func (s *MemoryStore) ListUserClaims(ctx context.Context, userID string, offset, limit int) ([]model.ClaimSummary, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.userClaims[userID]
	claims := make([]model.Claim, 0, len(ids))
	for _, id := range ids {
		if claim, exists := s.claims[id]; exists {
			claims = append(claims, claim)
		}
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].SubmittedAt.After(claims[j].SubmittedAt)
	})

	total := int64(len(claims))
	if offset >= len(claims) {
		return []model.ClaimSummary{}, total, nil
	}
	end := offset + limit
	if end > len(claims) {
		end = len(claims)
	}

	summaries := make([]model.ClaimSummary, 0, end-offset)
	for _, claim := range claims[offset:end] {
		summaries = append(summaries, claim.Summary())
	}
	return summaries, total, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
