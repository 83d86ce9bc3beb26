// Package client holds HTTP clients for external services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// MailerClient calls the notification mailer service. Email rendering and
// SMTP delivery happen there; this client only posts fully-formed
// notification payloads.
//
// Dispatch volume spikes when the report scheduler runs, so sends go
// through a bulkhead on top of the usual breaker + retry.
type MailerClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewMailerClient creates a new MailerClient.
func NewMailerClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *MailerClient {
	return &MailerClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
	}
}

// SendBudgetAlert posts a budget threshold alert.
func (c *MailerClient) SendBudgetAlert(ctx context.Context, req *domain.BudgetAlertRequest) error {
	ctx, span := tracer.Start(ctx, "MailerClient.SendBudgetAlert")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.Int("threshold", req.Threshold),
	)

	return c.send(ctx, "/v1/mail/budget-alert", req)
}

// SendGoalAchieved posts a goal achievement notification.
func (c *MailerClient) SendGoalAchieved(ctx context.Context, req *domain.GoalAchievedRequest) error {
	ctx, span := tracer.Start(ctx, "MailerClient.SendGoalAchieved")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	return c.send(ctx, "/v1/mail/goal-achieved", req)
}

// SendDailyReport posts a daily spending report.
func (c *MailerClient) SendDailyReport(ctx context.Context, req *domain.DailyReportRequest) error {
	ctx, span := tracer.Start(ctx, "MailerClient.SendDailyReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	return c.send(ctx, "/v1/mail/daily-report", req)
}

// SendMonthlyReport posts a monthly overview report.
func (c *MailerClient) SendMonthlyReport(ctx context.Context, req *domain.MonthlyReportRequest) error {
	ctx, span := tracer.Start(ctx, "MailerClient.SendMonthlyReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	return c.send(ctx, "/v1/mail/monthly-report", req)
}

func (c *MailerClient) send(ctx context.Context, path string, payload any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrExternalService{Service: "mailer", Err: err}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			url := c.baseURL + path
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("mailer API returned status %d", resp.StatusCode)
			}
			return nil
		})
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "mailer", Err: err}
	}
	return nil
}
