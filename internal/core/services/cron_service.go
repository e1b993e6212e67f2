package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"libradesk/internal/config"
	"libradesk/internal/core/analytics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// OverdueSource yields overdue fines grouped by borrower
type OverdueSource interface {
	OverdueByBorrower(ctx context.Context) (map[string][]analytics.FineRow, *analytics.FinesReport, error)
}

// TokenCleaner purges dead refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Notifier delivers reminders
type Notifier interface {
	IsEnabled() bool
	NotifyOverdue(ctx context.Context, rows []analytics.FineRow) error
	NotifyFinesDigest(ctx context.Context, totals analytics.FineTotals) error
}

// jobTimeout bounds a single scheduled run
const jobTimeout = 2 * time.Minute

// CronService runs the scheduled jobs: overdue reminders and token cleanup
type CronService struct {
	cron     *cron.Cron
	overdue  OverdueSource
	tokens   TokenCleaner
	notifier Notifier
	cfg      config.NotifyConfig
}

// NewCronService creates the scheduler and registers both jobs
func NewCronService(
	overdue OverdueSource,
	tokens TokenCleaner,
	notifier Notifier,
	cfg config.NotifyConfig,
	loc *time.Location,
) (*CronService, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{log: log.With().Str("component", "cron").Logger()}

	s := &CronService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		overdue:  overdue,
		tokens:   tokens,
		notifier: notifier,
		cfg:      cfg,
	}

	if cfg.ReminderCron != "" {
		if _, err := s.cron.AddFunc(cfg.ReminderCron, s.reminderJob); err != nil {
			return nil, fmt.Errorf("invalid REMINDER_CRON %q: %w", cfg.ReminderCron, err)
		}
	}
	if cfg.CleanupCron != "" {
		if _, err := s.cron.AddFunc(cfg.CleanupCron, s.cleanupJob); err != nil {
			return nil, fmt.Errorf("invalid TOKEN_CLEANUP_CRON %q: %w", cfg.CleanupCron, err)
		}
	}

	return s, nil
}

// Start runs the scheduler in the background
func (s *CronService) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("⏰ Cron service started")
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("⏰ Cron service stopped")
}

func (s *CronService) reminderJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.RunOverdueReminders(ctx); err != nil {
		log.Error().Err(err).Msg("❌ Overdue reminder job failed")
	}
}

func (s *CronService) cleanupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.RunTokenCleanup(ctx); err != nil {
		log.Error().Err(err).Msg("❌ Token cleanup job failed")
	}
}

// RunOverdueReminders sends one reminder per borrower with overdue loans,
// then a digest. It returns the number of reminders delivered.
func (s *CronService) RunOverdueReminders(ctx context.Context) (int, error) {
	if !s.notifier.IsEnabled() {
		log.Debug().Msg("🔕 Notifications disabled, skipping overdue reminders")
		return 0, nil
	}

	grouped, report, err := s.overdue.OverdueByBorrower(ctx)
	if err != nil {
		return 0, err
	}

	borrowers := make([]string, 0, len(grouped))
	for id := range grouped {
		borrowers = append(borrowers, id)
	}
	sort.Strings(borrowers)

	sent, failed := 0, 0
	for _, id := range borrowers {
		if err := s.notifier.NotifyOverdue(ctx, grouped[id]); err != nil {
			failed++
			log.Warn().Err(err).Str("borrower_id", id).Msg("⚠️ Overdue reminder not delivered")
			continue
		}
		sent++
	}

	if err := s.notifier.NotifyFinesDigest(ctx, report.Totals); err != nil {
		log.Warn().Err(err).Msg("⚠️ Fines digest not delivered")
	}

	log.Info().Int("sent", sent).Int("failed", failed).Msg("📨 Overdue reminders done")
	return sent, nil
}

// RunTokenCleanup deletes expired and revoked refresh tokens
func (s *CronService) RunTokenCleanup(ctx context.Context) (int64, error) {
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("deleted", n).Msg("🧹 Refresh token cleanup done")
	return n, nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
