package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
)

func seedGoal(store *mockStore, g domain.Goal) string {
	id := store.genID()
	g.ID = id
	store.goals[id] = &g
	return id
}

func TestRecordGoalContribution_AchievementFiresOnce(t *testing.T) {
	store := newMockStore()
	mailer := &mockMailer{}
	svc := newTestService(store, mailer)
	seedUser(store, "user-1", "u1@example.com", domain.EmailPreferences{})

	id := seedGoal(store, domain.Goal{
		UserID:        "user-1",
		Name:          "Emergency fund",
		TargetAmount:  1000,
		CurrentAmount: 900,
	})

	ctx := context.Background()
	res, err := svc.RecordGoalContribution(ctx, "user-1", id, 1000)
	if err != nil {
		t.Fatalf("RecordGoalContribution: %v", err)
	}
	if !res.JustAchieved {
		t.Errorf("JustAchieved = false on crossing the target")
	}
	if !res.Goal.IsAchieved {
		t.Errorf("IsAchieved = false after reaching target")
	}
	if res.Progress != 100 {
		t.Errorf("Progress = %v, want 100", res.Progress)
	}

	// A further contribution on an already-achieved goal is not a
	// transition.
	res, err = svc.RecordGoalContribution(ctx, "user-1", id, 1100)
	if err != nil {
		t.Fatalf("RecordGoalContribution: %v", err)
	}
	if res.JustAchieved {
		t.Errorf("JustAchieved = true on an already-achieved goal")
	}
	if res.Progress != 100 {
		t.Errorf("Progress = %v, want clamp at 100", res.Progress)
	}

	if len(mailer.goalAchieved) != 1 {
		t.Errorf("goal emails = %d, want 1", len(mailer.goalAchieved))
	}
	if len(store.notifications) != 1 {
		t.Errorf("in-app notifications = %d, want 1", len(store.notifications))
	}
}

func TestRecordGoalContribution_BelowTarget(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	id := seedGoal(store, domain.Goal{
		UserID:        "user-1",
		Name:          "Vacation",
		TargetAmount:  2000,
		CurrentAmount: 100,
	})

	res, err := svc.RecordGoalContribution(context.Background(), "user-1", id, 500)
	if err != nil {
		t.Fatalf("RecordGoalContribution: %v", err)
	}
	if res.JustAchieved || res.Goal.IsAchieved {
		t.Errorf("goal marked achieved at 25%%")
	}
	if res.Progress != 25 {
		t.Errorf("Progress = %v, want 25", res.Progress)
	}
}

func TestRecordGoalContribution_RejectsInvalidAmounts(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	id := seedGoal(store, domain.Goal{
		UserID:        "user-1",
		Name:          "Vacation",
		TargetAmount:  2000,
		CurrentAmount: 100,
	})

	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -50} {
		_, err := svc.RecordGoalContribution(context.Background(), "user-1", id, amount)
		var invErr *domain.ErrInvalidAmount
		if !errors.As(err, &invErr) {
			t.Errorf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}

	// The goal is untouched after rejected updates.
	if store.goals[id].CurrentAmount != 100 {
		t.Errorf("CurrentAmount = %v after rejected updates, want 100", store.goals[id].CurrentAmount)
	}
}

func TestUpdateGoal_TargetShrinkIsATransition(t *testing.T) {
	store := newMockStore()
	mailer := &mockMailer{}
	svc := newTestService(store, mailer)
	seedUser(store, "user-1", "u1@example.com", domain.EmailPreferences{})

	id := seedGoal(store, domain.Goal{
		UserID:        "user-1",
		Name:          "Laptop",
		TargetAmount:  2000,
		CurrentAmount: 1500,
	})

	res, err := svc.UpdateGoal(context.Background(), &domain.Goal{
		ID:            id,
		UserID:        "user-1",
		Name:          "Laptop",
		TargetAmount:  1200,
		CurrentAmount: 1500,
	})
	if err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	if !res.JustAchieved {
		t.Errorf("shrinking the target below the saved amount did not count as achievement")
	}
	if len(mailer.goalAchieved) != 1 {
		t.Errorf("goal emails = %d, want 1", len(mailer.goalAchieved))
	}
}

func TestCreateGoal_DerivesAchievement(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockMailer{})

	created, err := svc.CreateGoal(context.Background(), &domain.Goal{
		UserID:        "user-1",
		Name:          "Seeded",
		TargetAmount:  500,
		CurrentAmount: 600,
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if !created.IsAchieved {
		t.Errorf("IsAchieved = false when current exceeds target at creation")
	}

	_, err = svc.CreateGoal(context.Background(), &domain.Goal{
		UserID:       "user-1",
		Name:         "Broken",
		TargetAmount: 0,
	})
	var invErr *domain.ErrInvalidAmount
	if !errors.As(err, &invErr) {
		t.Fatalf("zero target: err = %v, want ErrInvalidAmount", err)
	}
}
