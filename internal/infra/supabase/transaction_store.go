package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/resilience"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Transactions - CRUD via PostgREST
// ============================================================

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	Type              string  `json:"type"`
	Amount            float64 `json:"amount"`
	CategoryID        string  `json:"category_id"`
	SourceDestination string  `json:"source_destination"`
	Date              string  `json:"date"`
	Notes             string  `json:"notes"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:                r.ID,
		UserID:            r.UserID,
		Type:              r.Type,
		Amount:            r.Amount,
		CategoryID:        r.CategoryID,
		SourceDestination: r.SourceDestination,
		Date:              parseTimestamp(r.Date),
		Notes:             r.Notes,
		CreatedAt:         parseTimestamp(r.CreatedAt),
		UpdatedAt:         parseTimestamp(r.UpdatedAt),
	}
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// transactionQuery builds the PostgREST filter string for a listing.
// The aggregator passes PageSize == 0, which drops limit/offset so every
// row in range is returned.
func transactionQuery(userID string, f domain.TransactionFilter) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "transactions?user_id=eq.%s", userID)

	if f.Type != "" {
		fmt.Fprintf(&sb, "&type=eq.%s", f.Type)
	}
	if f.CategoryID != "" {
		fmt.Fprintf(&sb, "&category_id=eq.%s", f.CategoryID)
	}
	if !f.From.IsZero() {
		fmt.Fprintf(&sb, "&date=gte.%s", url.QueryEscape(f.From.UTC().Format(time.RFC3339)))
	}
	if !f.To.IsZero() {
		fmt.Fprintf(&sb, "&date=lte.%s", url.QueryEscape(f.To.UTC().Format(time.RFC3339Nano)))
	}
	if f.MinAmount > 0 {
		fmt.Fprintf(&sb, "&amount=gte.%g", f.MinAmount)
	}
	if f.MaxAmount > 0 {
		fmt.Fprintf(&sb, "&amount=lte.%g", f.MaxAmount)
	}
	if f.Search != "" {
		pattern := url.QueryEscape("*" + f.Search + "*")
		fmt.Fprintf(&sb, "&or=(source_destination.ilike.%s,notes.ilike.%s)", pattern, pattern)
	}

	sortBy := f.SortBy
	switch sortBy {
	case "amount", "created_at":
	default:
		sortBy = "date"
	}
	order := "desc"
	if f.Order == "asc" {
		order = "asc"
	}
	fmt.Fprintf(&sb, "&order=%s.%s", sortBy, order)

	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		fmt.Fprintf(&sb, "&limit=%d&offset=%d", f.PageSize, (page-1)*f.PageSize)
	}

	return sb.String()
}

// ListTransactions fetches transactions matching the filter. This is the
// hot path behind every aggregation, so it runs under the circuit breaker
// with retries.
func (c *Client) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var transactions []domain.Transaction

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, transactionQuery(userID, f))
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				transactions = []domain.Transaction{}
				return nil
			}

			var rows []transactionRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode transactions: %w", err)
			}

			transactions = make([]domain.Transaction, 0, len(rows))
			for _, r := range rows {
				transactions = append(transactions, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// CountTransactions returns the total row count for the filter, ignoring
// pagination.
func (c *Client) CountTransactions(ctx context.Context, userID string, f domain.TransactionFilter) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountTransactions")
	defer span.End()

	f.Page = 0
	f.PageSize = 0
	total, err := c.doCount(ctx, transactionQuery(userID, f))
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return total, nil
}

func (c *Client) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s&limit=1", userID, transactionID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	t := rows[0].toDomain()
	return &t, nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	row := map[string]any{
		"id":                 uuid.NewString(),
		"user_id":            tx.UserID,
		"type":               tx.Type,
		"amount":             tx.Amount,
		"category_id":        tx.CategoryID,
		"source_destination": tx.SourceDestination,
		"date":               tx.Date.UTC().Format(time.RFC3339),
		"notes":              tx.Notes,
		"created_at":         time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "transactions", row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var results []transactionRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from transactions insert")
	}
	t := results[0].toDomain()
	return &t, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	patch := map[string]any{
		"type":               tx.Type,
		"amount":             tx.Amount,
		"category_id":        tx.CategoryID,
		"source_destination": tx.SourceDestination,
		"date":               tx.Date.UTC().Format(time.RFC3339),
		"notes":              tx.Notes,
		"updated_at":         time.Now().UTC().Format(time.RFC3339),
	}

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", tx.UserID, tx.ID)
	body, err := c.doPatch(ctx, path, patch)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	var results []transactionRow
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
	}
	t := results[0].toDomain()
	return &t, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&id=eq.%s", userID, transactionID)
	if err := c.doDelete(ctx, path); err != nil {
		if errors.Is(err, errNoRows) {
			return &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
		}
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}
