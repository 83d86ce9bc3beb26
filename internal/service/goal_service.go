package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Goals
// ============================================================

func (s *FinanceService) ListGoals(ctx context.Context, userID string, achieved *bool) ([]domain.Goal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListGoals")
	defer span.End()

	return s.store.ListGoals(ctx, userID, achieved)
}

func (s *FinanceService) GetGoal(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetGoal")
	defer span.End()

	return s.store.GetGoal(ctx, userID, goalID)
}

func (s *FinanceService) CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateGoal")
	defer span.End()

	if goal.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if math.IsNaN(goal.TargetAmount) || math.IsInf(goal.TargetAmount, 0) || goal.TargetAmount <= 0 {
		return nil, &domain.ErrInvalidAmount{Field: "target_amount", Value: goal.TargetAmount}
	}
	if math.IsNaN(goal.CurrentAmount) || math.IsInf(goal.CurrentAmount, 0) || goal.CurrentAmount < 0 {
		return nil, &domain.ErrInvalidAmount{Field: "current_amount", Value: goal.CurrentAmount}
	}
	goal.IsAchieved = goal.CurrentAmount >= goal.TargetAmount

	return s.store.CreateGoal(ctx, goal)
}

// UpdateGoal edits a goal definition. IsAchieved is always recomputed
// from the amounts; a definition edit that crosses the target counts as
// an achievement transition.
func (s *FinanceService) UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.GoalContributionResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateGoal")
	defer span.End()

	existing, err := s.store.GetGoal(ctx, goal.UserID, goal.ID)
	if err != nil {
		return nil, err
	}
	if goal.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if math.IsNaN(goal.TargetAmount) || math.IsInf(goal.TargetAmount, 0) || goal.TargetAmount <= 0 {
		return nil, &domain.ErrInvalidAmount{Field: "target_amount", Value: goal.TargetAmount}
	}

	updated := *existing
	updated.Name = goal.Name
	updated.TargetAmount = goal.TargetAmount
	updated.Deadline = goal.Deadline
	updated.Description = goal.Description
	updated.IsAchieved = existing.CurrentAmount >= updated.TargetAmount

	applied, justAchieved, err := domain.ApplyContribution(updated, goal.CurrentAmount)
	if err != nil {
		return nil, err
	}
	// Shrinking the target below the prior amount is also a transition.
	if !existing.IsAchieved && applied.IsAchieved {
		justAchieved = true
	}

	saved, err := s.store.UpdateGoal(ctx, &applied)
	if err != nil {
		return nil, err
	}

	if justAchieved {
		s.onGoalAchieved(ctx, saved)
	}

	return &domain.GoalContributionResult{
		Goal:         saved,
		Progress:     round2(saved.Progress()),
		JustAchieved: justAchieved,
	}, nil
}

// RecordGoalContribution sets the goal's current amount and reports
// whether this update achieved the goal. The celebratory side effects
// run only on the transition.
func (s *FinanceService) RecordGoalContribution(ctx context.Context, userID, goalID string, newCurrent float64) (*domain.GoalContributionResult, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.RecordGoalContribution")
	defer span.End()

	goal, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	applied, justAchieved, err := domain.ApplyContribution(*goal, newCurrent)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.UpdateGoal(ctx, &applied)
	if err != nil {
		return nil, err
	}

	if justAchieved {
		s.onGoalAchieved(ctx, saved)
	}

	return &domain.GoalContributionResult{
		Goal:         saved,
		Progress:     round2(saved.Progress()),
		JustAchieved: justAchieved,
	}, nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteGoal")
	defer span.End()

	return s.store.DeleteGoal(ctx, userID, goalID)
}

// onGoalAchieved records the in-app notification and emails the user.
// Failures only log; the goal update already succeeded.
func (s *FinanceService) onGoalAchieved(ctx context.Context, goal *domain.Goal) {
	s.metrics.IncrGoalAchieved()

	if err := s.store.InsertNotification(ctx, &domain.Notification{
		UserID:  goal.UserID,
		Type:    "goal_achieved",
		Title:   fmt.Sprintf("Goal %q achieved!", goal.Name),
		Message: fmt.Sprintf("You reached your target of %.2f. Congratulations!", goal.TargetAmount),
	}); err != nil {
		s.logger.Warn("failed to insert goal notification",
			zap.String("goal_id", goal.ID),
			zap.Error(err),
		)
	}

	user, err := s.store.GetUserProfile(ctx, goal.UserID)
	if err != nil {
		s.logger.Warn("failed to load user for goal notification",
			zap.String("user_id", goal.UserID),
			zap.Error(err),
		)
		return
	}
	if user.Email == "" {
		return
	}

	if err := s.mailer.SendGoalAchieved(ctx, &domain.GoalAchievedRequest{
		UserID:       user.ID,
		Email:        user.Email,
		UserName:     user.Name,
		GoalID:       goal.ID,
		GoalName:     goal.Name,
		TargetAmount: goal.TargetAmount,
	}); err != nil {
		s.metrics.IncrExternalError("mailer")
		s.logger.Error("failed to send goal achieved email",
			zap.String("goal_id", goal.ID),
			zap.Error(err),
		)
	}
}
