package service

import (
	"context"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/observability"
	"github.com/rupeetrail/rupeetrail-api-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var schedTracer = otel.Tracer("service/scheduler")

// Per-job fan-out cap across users.
const reportConcurrency = 8

// Scheduler runs the daily and monthly report jobs. All wall-clock
// decisions happen in the reporting timezone: the daily job fires at
// DailyHour and covers yesterday, the monthly job fires at 09:00 on the
// 1st and covers the previous month.
type Scheduler struct {
	svc       *FinanceService
	store     port.FinanceStore
	mailer    port.NotificationMailer
	loc       *time.Location
	dailyHour int
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewScheduler creates a report scheduler.
func NewScheduler(svc *FinanceService, store port.FinanceStore, mailer port.NotificationMailer, loc *time.Location, dailyHour int, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	if dailyHour < 0 || dailyHour > 23 {
		dailyHour = 21
	}
	return &Scheduler{
		svc:       svc,
		store:     store,
		mailer:    mailer,
		loc:       loc,
		dailyHour: dailyHour,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled, firing jobs at their scheduled
// times.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := time.Now().In(s.loc)
		nextDaily := s.nextDailyRun(now)
		nextMonthly := s.nextMonthlyRun(now)

		dailyTimer := time.NewTimer(nextDaily.Sub(now))
		monthlyTimer := time.NewTimer(nextMonthly.Sub(now))

		select {
		case <-ctx.Done():
			dailyTimer.Stop()
			monthlyTimer.Stop()
			return
		case t := <-dailyTimer.C:
			monthlyTimer.Stop()
			s.RunDailyReports(ctx, t.In(s.loc))
		case t := <-monthlyTimer.C:
			dailyTimer.Stop()
			s.RunMonthlyReports(ctx, t.In(s.loc))
		}
	}
}

func (s *Scheduler) nextDailyRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.dailyHour, 0, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) nextMonthlyRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), 1, 9, 0, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}

// RunDailyReports emails yesterday's expense summary to every opted-in
// user. Users are processed concurrently with a bounded fan-out; one
// failing user never blocks the rest.
func (s *Scheduler) RunDailyReports(ctx context.Context, now time.Time) {
	ctx, span := schedTracer.Start(ctx, "Scheduler.RunDailyReports")
	defer span.End()

	s.metrics.IncrReportRun("daily")
	yesterday := now.In(s.loc).AddDate(0, 0, -1)
	s.logger.Info("daily report job started",
		zap.String("report_date", yesterday.Format("2006-01-02")),
	)

	users, err := s.store.ListUsersWithPreference(ctx, "daily_report")
	if err != nil {
		s.logger.Error("daily report: failed to list users", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			if user.Email == "" {
				return nil
			}
			report, err := s.svc.BuildDailyReport(gctx, user.ID, yesterday)
			if err != nil {
				s.logger.Error("daily report build failed",
					zap.String("user_id", user.ID),
					zap.Error(err),
				)
				return nil
			}
			if err := s.mailer.SendDailyReport(gctx, &domain.DailyReportRequest{
				UserID:   user.ID,
				Email:    user.Email,
				UserName: user.Name,
				Report:   *report,
			}); err != nil {
				s.metrics.IncrExternalError("mailer")
				s.logger.Error("daily report send failed",
					zap.String("user_id", user.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Info("daily report job finished", zap.Int("users", len(users)))
}

// RunMonthlyReports emails the previous month's overview to every
// opted-in user.
func (s *Scheduler) RunMonthlyReports(ctx context.Context, now time.Time) {
	ctx, span := schedTracer.Start(ctx, "Scheduler.RunMonthlyReports")
	defer span.End()

	s.metrics.IncrReportRun("monthly")
	local := now.In(s.loc)
	firstOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	prevMonth := firstOfMonth.AddDate(0, -1, 0)
	s.logger.Info("monthly report job started",
		zap.String("month", prevMonth.Format("2006-01")),
	)

	users, err := s.store.ListUsersWithPreference(ctx, "monthly_report")
	if err != nil {
		s.logger.Error("monthly report: failed to list users", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			if user.Email == "" {
				return nil
			}
			report, err := s.svc.BuildMonthlyReport(gctx, user.ID, prevMonth)
			if err != nil {
				s.logger.Error("monthly report build failed",
					zap.String("user_id", user.ID),
					zap.Error(err),
				)
				return nil
			}
			if err := s.mailer.SendMonthlyReport(gctx, &domain.MonthlyReportRequest{
				UserID:   user.ID,
				Email:    user.Email,
				UserName: user.Name,
				Report:   *report,
			}); err != nil {
				s.metrics.IncrExternalError("mailer")
				s.logger.Error("monthly report send failed",
					zap.String("user_id", user.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Info("monthly report job finished", zap.Int("users", len(users)))
}
