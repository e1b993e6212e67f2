package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"libradesk/internal/config"
	"libradesk/internal/core/analytics"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// breakerFailureThreshold trips the webhook breaker after this many consecutive failures
const breakerFailureThreshold = 3

// NotificationService posts JSON messages to the configured webhook
type NotificationService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

// Notification is the webhook payload
type Notification struct {
	Event   string      `json:"event"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// NewNotificationService creates a new notification service; it is a no-op without a webhook URL
func NewNotificationService(cfg config.NotifyConfig) *NotificationService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "notify-webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("🔌 Notification breaker state changed")
		},
	}

	return &NotificationService{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.WebhookURL != "",
		client:     &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// BreakerState reports the webhook breaker state (closed, half-open, open)
func (s *NotificationService) BreakerState() string {
	return s.breaker.State().String()
}

// Send posts one notification through the circuit breaker
func (s *NotificationService) Send(ctx context.Context, n Notification) error {
	if !s.enabled {
		return nil
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	_, err = s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, body)
	})
	return err
}

func (s *NotificationService) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}

// OverdueReminder is the payload for one borrower's overdue loans
type OverdueReminder struct {
	BorrowerID   string              `json:"borrower_id"`
	BorrowerName string              `json:"borrower_name"`
	Total        string              `json:"total"`
	Loans        []analytics.FineRow `json:"loans"`
}

// NotifyOverdue sends one reminder for a borrower's overdue loans
func (s *NotificationService) NotifyOverdue(ctx context.Context, rows []analytics.FineRow) error {
	if len(rows) == 0 {
		return nil
	}

	var total float64
	for _, r := range rows {
		total += r.Amount
	}
	reminder := OverdueReminder{
		BorrowerID:   rows[0].BorrowerID,
		BorrowerName: rows[0].BorrowerName,
		Total:        strconv.FormatFloat(total, 'f', 2, 64),
		Loans:        rows,
	}

	return s.Send(ctx, Notification{
		Event:   "loan.overdue",
		Title:   "📕 Overdue books",
		Message: fmt.Sprintf("%s has %d overdue loan(s), %s outstanding", displayBorrower(reminder), len(rows), reminder.Total),
		Data:    reminder,
	})
}

// NotifyFinesDigest sends the daily totals to the desk channel
func (s *NotificationService) NotifyFinesDigest(ctx context.Context, totals analytics.FineTotals) error {
	return s.Send(ctx, Notification{
		Event: "fines.digest",
		Title: "💰 Daily fines digest",
		Message: fmt.Sprintf("%d overdue loan(s), %.2f outstanding, average %.2f over %.2f days",
			totals.OverdueLoans, totals.Outstanding, totals.AverageFine, totals.AverageDaysOverdue),
		Data: totals,
	})
}

func displayBorrower(r OverdueReminder) string {
	if r.BorrowerName != "" {
		return r.BorrowerName
	}
	return "Borrower " + r.BorrowerID
}
