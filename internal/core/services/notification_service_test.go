package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"libradesk/internal/config"
	"libradesk/internal/core/analytics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []Notification
	status int
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var n Notification
	_ = json.Unmarshal(raw, &n)

	w.mu.Lock()
	w.bodies = append(w.bodies, n)
	status := w.status
	w.mu.Unlock()

	if status == 0 {
		status = http.StatusNoContent
	}
	rw.WriteHeader(status)
}

func (w *webhookRecorder) received() []Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notification(nil), w.bodies...)
}

func TestNotification_Disabled(t *testing.T) {
	svc := NewNotificationService(config.NotifyConfig{})
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.Send(context.Background(), Notification{Event: "noop"}))
}

func TestNotifyOverdue_Payload(t *testing.T) {
	hook := &webhookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	svc := NewNotificationService(config.NotifyConfig{WebhookURL: srv.URL, Timeout: time.Second})
	require.True(t, svc.IsEnabled())

	rows := []analytics.FineRow{
		{LoanID: "1", BorrowerID: "7", BorrowerName: "Ada Lovelace", Title: "SICP", DaysOverdue: "10", Fine: "10.00", Amount: 10},
		{LoanID: "2", BorrowerID: "7", BorrowerName: "Ada Lovelace", Title: "Dune", DaysOverdue: "2", Fine: "2.50", Amount: 2.5},
	}
	require.NoError(t, svc.NotifyOverdue(context.Background(), rows))
	require.NoError(t, svc.NotifyOverdue(context.Background(), nil))

	got := hook.received()
	require.Len(t, got, 1)
	assert.Equal(t, "loan.overdue", got[0].Event)
	assert.Equal(t, "Ada Lovelace has 2 overdue loan(s), 12.50 outstanding", got[0].Message)
	assert.False(t, got[0].SentAt.IsZero())

	data, ok := got[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "12.50", data["total"])
	assert.Equal(t, "7", data["borrower_id"])
}

func TestNotifyFinesDigest(t *testing.T) {
	hook := &webhookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	svc := NewNotificationService(config.NotifyConfig{WebhookURL: srv.URL})
	err := svc.NotifyFinesDigest(context.Background(), analytics.FineTotals{
		Outstanding: 12, OverdueLoans: 2, AverageFine: 6, AverageDaysOverdue: 6,
	})
	require.NoError(t, err)

	got := hook.received()
	require.Len(t, got, 1)
	assert.Equal(t, "fines.digest", got[0].Event)
	assert.Equal(t, "2 overdue loan(s), 12.00 outstanding, average 6.00 over 6.00 days", got[0].Message)
}

func TestNotification_BreakerOpensAfterFailures(t *testing.T) {
	hook := &webhookRecorder{status: http.StatusBadGateway}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	svc := NewNotificationService(config.NotifyConfig{WebhookURL: srv.URL})
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold; i++ {
		err := svc.Send(ctx, Notification{Event: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	}
	assert.Equal(t, "open", svc.BreakerState())

	err := svc.Send(ctx, Notification{Event: "test"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, hook.received(), breakerFailureThreshold)
}
