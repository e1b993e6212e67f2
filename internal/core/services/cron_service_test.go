package services

import (
	"context"
	"errors"
	"testing"

	"libradesk/internal/config"
	"libradesk/internal/core/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOverdue struct {
	grouped map[string][]analytics.FineRow
	report  *analytics.FinesReport
	err     error
}

func (s stubOverdue) OverdueByBorrower(context.Context) (map[string][]analytics.FineRow, *analytics.FinesReport, error) {
	return s.grouped, s.report, s.err
}

type stubCleaner struct{ deleted int64 }

func (s stubCleaner) CleanupExpiredTokens(context.Context) (int64, error) { return s.deleted, nil }

type recordingNotifier struct {
	enabled   bool
	failFor   string
	reminders []string
	digests   []analytics.FineTotals
}

func (n *recordingNotifier) IsEnabled() bool { return n.enabled }

func (n *recordingNotifier) NotifyOverdue(_ context.Context, rows []analytics.FineRow) error {
	if rows[0].BorrowerID == n.failFor {
		return errors.New("webhook down")
	}
	n.reminders = append(n.reminders, rows[0].BorrowerID)
	return nil
}

func (n *recordingNotifier) NotifyFinesDigest(_ context.Context, totals analytics.FineTotals) error {
	n.digests = append(n.digests, totals)
	return nil
}

func overdueFixture() stubOverdue {
	return stubOverdue{
		grouped: map[string][]analytics.FineRow{
			"9": {{BorrowerID: "9", Amount: 1}},
			"2": {{BorrowerID: "2", Amount: 3}},
			"5": {{BorrowerID: "5", Amount: 2}},
		},
		report: &analytics.FinesReport{Totals: analytics.FineTotals{Outstanding: 6, OverdueLoans: 3}},
	}
}

func TestNewCronService_InvalidSpec(t *testing.T) {
	_, err := NewCronService(stubOverdue{}, stubCleaner{}, &recordingNotifier{}, config.NotifyConfig{ReminderCron: "every morning"}, nil)
	assert.Error(t, err)

	_, err = NewCronService(stubOverdue{}, stubCleaner{}, &recordingNotifier{}, config.NotifyConfig{CleanupCron: "61 * * * *"}, nil)
	assert.Error(t, err)
}

func TestNewCronService_RegistersJobs(t *testing.T) {
	svc, err := NewCronService(stubOverdue{}, stubCleaner{}, &recordingNotifier{}, config.NotifyConfig{
		ReminderCron: "30 8 * * *",
		CleanupCron:  "0 3 * * *",
	}, nil)
	require.NoError(t, err)
	assert.Len(t, svc.cron.Entries(), 2)

	svc.Start()
	svc.Stop()
}

func TestRunOverdueReminders(t *testing.T) {
	notifier := &recordingNotifier{enabled: true, failFor: "5"}
	svc, err := NewCronService(overdueFixture(), stubCleaner{}, notifier, config.NotifyConfig{}, nil)
	require.NoError(t, err)

	sent, err := svc.RunOverdueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"2", "9"}, notifier.reminders)
	require.Len(t, notifier.digests, 1)
	assert.Equal(t, 6.0, notifier.digests[0].Outstanding)
}

func TestRunOverdueReminders_Disabled(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, err := NewCronService(stubOverdue{err: errors.New("must not be called")}, stubCleaner{}, notifier, config.NotifyConfig{}, nil)
	require.NoError(t, err)

	sent, err := svc.RunOverdueReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, notifier.digests)
}

func TestRunOverdueReminders_SourceError(t *testing.T) {
	svc, err := NewCronService(stubOverdue{err: errors.New("db gone")}, stubCleaner{}, &recordingNotifier{enabled: true}, config.NotifyConfig{}, nil)
	require.NoError(t, err)

	_, err = svc.RunOverdueReminders(context.Background())
	assert.EqualError(t, err, "db gone")
}

func TestRunTokenCleanup(t *testing.T) {
	svc, err := NewCronService(stubOverdue{}, stubCleaner{deleted: 4}, &recordingNotifier{}, config.NotifyConfig{}, nil)
	require.NoError(t, err)

	n, err := svc.RunTokenCleanup(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestCronWithReportService(t *testing.T) {
	reports := newReportFixture()
	notifier := &recordingNotifier{enabled: true}
	svc, err := NewCronService(reports, stubCleaner{}, notifier, config.NotifyConfig{}, nil)
	require.NoError(t, err)

	sent, err := svc.RunOverdueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, notifier.digests, 1)
	assert.Equal(t, 12.0, notifier.digests[0].Outstanding)
}
