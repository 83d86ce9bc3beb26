package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// In-app notifications
// ============================================================

// notificationRow maps the notifications table columns.
type notificationRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func (r notificationRow) toDomain() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Message:   r.Message,
		Read:      r.Read,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

func (c *Client) InsertNotification(ctx context.Context, n *domain.Notification) error {
	ctx, span := tracer.Start(ctx, "Supabase.InsertNotification")
	defer span.End()

	row := map[string]any{
		"id":         uuid.NewString(),
		"user_id":    n.UserID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"read":       false,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := c.doPost(ctx, "notifications", row); err != nil {
		return &domain.ErrExternalService{Service: "supabase/notifications", Err: err}
	}
	return nil
}

func (c *Client) ListNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNotifications")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	path := fmt.Sprintf("notifications?user_id=eq.%s&order=created_at.desc&limit=%d&offset=%d",
		userID, pageSize, (page-1)*pageSize)
	if unreadOnly {
		path += "&read=eq.false"
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/notifications", Err: err}
	}

	if body == nil || string(body) == "[]" {
		return []domain.Notification{}, nil
	}

	var rows []notificationRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	notifications := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, r.toDomain())
	}
	return notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkNotificationRead")
	defer span.End()

	path := fmt.Sprintf("notifications?user_id=eq.%s&id=eq.%s", userID, notificationID)
	body, err := c.doPatch(ctx, path, map[string]any{"read": true})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/notifications", Err: err}
	}
	if string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "notification", ID: notificationID}
	}
	return nil
}
