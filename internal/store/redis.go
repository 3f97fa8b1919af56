package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkarpov/verity/internal/model"
)

// RedisStore persists claims and verifications in Redis. Claims live under
// claims:<id>, verification results under verifications:<id>, and each
// user's claim IDs in a sorted set keyed by submission time for history
// pagination.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg model.StoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client}, nil
}

func claimKey(id string) string        { return "claims:" + id }
func verificationKey(id string) string { return "verifications:" + id }
func userClaimsKey(userID string) string {
	return "users:" + userID + ":claims"
}

// SaveClaim persists a new claim and indexes it under its user
func (s *RedisStore) SaveClaim(ctx context.Context, claim *model.Claim) error {
	data, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}

	ok, err := s.client.SetNX(ctx, claimKey(claim.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}

	if claim.UserID != "" {
		err = s.client.ZAdd(ctx, userClaimsKey(claim.UserID), redis.Z{
			Score:  float64(claim.SubmittedAt.UnixMilli()),
			Member: claim.ID,
		}).Err()
		if err != nil {
			return fmt.Errorf("index claim for user: %w", err)
		}
	}

	return nil
}

// GetClaim loads a claim by ID
func (s *RedisStore) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	data, err := s.client.Get(ctx, claimKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}

	var claim model.Claim
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, fmt.Errorf("decode claim: %w", err)
	}
	return &claim, nil
}

// UpdateClaim overwrites an existing claim's record
func (s *RedisStore) UpdateClaim(ctx context.Context, claim *model.Claim) error {
	data, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}

	// XX: only update records that already exist
	ok, err := s.client.SetXX(ctx, claimKey(claim.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// SaveVerification persists a verification result exactly once
func (s *RedisStore) SaveVerification(ctx context.Context, result *model.VerificationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}

	ok, err := s.client.SetNX(ctx, verificationKey(result.ClaimID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// GetVerification loads a verification result by claim ID
func (s *RedisStore) GetVerification(ctx context.Context, claimID string) (*model.VerificationResult, error) {
	data, err := s.client.Get(ctx, verificationKey(claimID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}

	var result model.VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	return &result, nil
}

// ListUserClaims returns a page of the user's claims, newest first
func (s *RedisStore) ListUserClaims(ctx context.Context, userID string, offset, limit int) ([]model.ClaimSummary, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	key := userClaimsKey(userID)

	total, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("count user claims: %w", err)
	}
	if total == 0 {
		return []model.ClaimSummary{}, 0, nil
	}

	ids, err := s.client.ZRevRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("list user claims: %w", err)
	}

	summaries := make([]model.ClaimSummary, 0, len(ids))
	for _, id := range ids {
		claim, err := s.GetClaim(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, claim.Summary())
	}

	return summaries, total, nil
}

// Ping verifies the backend is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
