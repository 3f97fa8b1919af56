package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pkarpov/verity/internal/model"
)

func newClaim(id, userID string, submittedAt time.Time) *model.Claim {
	return &model.Claim{
		ID:          id,
		Text:        "some claim text",
		UserID:      userID,
		Status:      model.StatusSubmitted,
		Priority:    model.PriorityNormal,
		Language:    "en",
		SubmittedAt: submittedAt,
		UpdatedAt:   submittedAt,
	}
}

func TestMemoryStore_ClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	claim := newClaim("c1", "u1", time.Now())
	if err := s.SaveClaim(ctx, claim); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	// Duplicate save is rejected
	if err := s.SaveClaim(ctx, claim); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate SaveClaim err = %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetClaim(ctx, "c1")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.Status != model.StatusSubmitted {
		t.Errorf("status = %s", got.Status)
	}

	got.Status = model.StatusProcessing
	if err := s.UpdateClaim(ctx, got); err != nil {
		t.Fatalf("UpdateClaim: %v", err)
	}
	updated, _ := s.GetClaim(ctx, "c1")
	if updated.Status != model.StatusProcessing {
		t.Errorf("status after update = %s", updated.Status)
	}

	// Updating a missing claim fails
	if err := s.UpdateClaim(ctx, newClaim("ghost", "", time.Now())); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateClaim(missing) err = %v, want ErrNotFound", err)
	}

	if _, err := s.GetClaim(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClaim(missing) err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_VerificationWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &model.VerificationResult{ClaimID: "c1", Verdict: model.VerdictFalse}
	if err := s.SaveVerification(ctx, first); err != nil {
		t.Fatalf("SaveVerification: %v", err)
	}

	second := &model.VerificationResult{ClaimID: "c1", Verdict: model.VerdictTrue}
	if err := s.SaveVerification(ctx, second); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second SaveVerification err = %v, want ErrAlreadyExists", err)
	}

	got, err := s.GetVerification(ctx, "c1")
	if err != nil {
		t.Fatalf("GetVerification: %v", err)
	}
	if got.Verdict != model.VerdictFalse {
		t.Errorf("verdict = %s, the first write must win", got.Verdict)
	}

	if _, err := s.GetVerification(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVerification(missing) err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListUserClaims(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now()
	for i := 0; i < 5; i++ {
		claim := newClaim(fmt.Sprintf("c%d", i), "u1", base.Add(time.Duration(i)*time.Minute))
		if err := s.SaveClaim(ctx, claim); err != nil {
			t.Fatal(err)
		}
	}
	// Another user's claim must not leak in
	if err := s.SaveClaim(ctx, newClaim("other", "u2", base)); err != nil {
		t.Fatal(err)
	}

	page, total, err := s.ListUserClaims(ctx, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListUserClaims: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first
	if page[0].ID != "c4" || page[1].ID != "c3" {
		t.Errorf("page order = %s, %s; want c4, c3", page[0].ID, page[1].ID)
	}

	// Second page
	page, _, err = s.ListUserClaims(ctx, "u1", 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "c0" {
		t.Errorf("last page = %+v", page)
	}

	// Offset past the end yields an empty page, not an error
	page, total, err = s.ListUserClaims(ctx, "u1", 100, 10)
	if err != nil || len(page) != 0 || total != 5 {
		t.Errorf("past-end page = %v, total = %d, err = %v", page, total, err)
	}

	// Unknown user
	page, total, err = s.ListUserClaims(ctx, "nobody", 0, 10)
	if err != nil || len(page) != 0 || total != 0 {
		t.Errorf("unknown user page = %v, total = %d, err = %v", page, total, err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	claim := newClaim("c1", "u1", time.Now())
	if err := s.SaveClaim(ctx, claim); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetClaim(ctx, "c1")
	got.Status = model.StatusFailed

	again, _ := s.GetClaim(ctx, "c1")
	if again.Status != model.StatusSubmitted {
		t.Error("mutating a returned claim must not affect the store")
	}
}
