package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refNow = time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)

func TestResolveLoanStatusMeta(t *testing.T) {
	returned := refNow.Add(-48 * time.Hour)

	tests := []struct {
		name      string
		loan      LoanRecord
		opts      StatusOptions
		wantKey   StatusKey
		wantLabel string
	}{
		{
			name:      "returned on time",
			loan:      LoanRecord{DueAt: refNow.Add(24 * time.Hour), ReturnedAt: &returned},
			opts:      StatusOptions{Now: refNow},
			wantKey:   StatusReturned,
			wantLabel: "returned",
		},
		{
			name:      "returned late is still returned",
			loan:      LoanRecord{DueAt: refNow.Add(-10 * 24 * time.Hour), ReturnedAt: &returned},
			opts:      StatusOptions{Now: refNow, ActiveLabel: "On Time"},
			wantKey:   StatusReturned,
			wantLabel: "returned",
		},
		{
			name:      "past due",
			loan:      LoanRecord{DueAt: refNow.Add(-time.Minute)},
			opts:      StatusOptions{Now: refNow, ActiveLabel: "On Time"},
			wantKey:   StatusOverdue,
			wantLabel: "overdue",
		},
		{
			name:      "due exactly now is not overdue",
			loan:      LoanRecord{DueAt: refNow},
			opts:      StatusOptions{Now: refNow},
			wantKey:   StatusActive,
			wantLabel: "active",
		},
		{
			name:      "active with custom label",
			loan:      LoanRecord{DueAt: refNow.Add(72 * time.Hour)},
			opts:      StatusOptions{Now: refNow, ActiveLabel: "On Time"},
			wantKey:   StatusActive,
			wantLabel: "On Time",
		},
		{
			name:      "missing due date stays active",
			loan:      LoanRecord{},
			opts:      StatusOptions{Now: refNow},
			wantKey:   StatusActive,
			wantLabel: "active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ResolveLoanStatusMeta(tt.loan, tt.opts)
			assert.Equal(t, tt.wantKey, meta.Key)
			assert.Equal(t, tt.wantLabel, meta.Label)
		})
	}
}

func TestResolveLoanStatusMeta_DocumentShapes(t *testing.T) {
	overdue := LoanRecordFromDocument(map[string]any{
		"dueAt": map[string]any{"$date": "2024-06-01T00:00:00Z"},
	})
	assert.Equal(t, StatusOverdue, ResolveLoanStatusMeta(overdue, StatusOptions{Now: refNow}).Key)

	returned := LoanRecordFromDocument(map[string]any{
		"dueAt":      "2024-06-01",
		"returnedAt": float64(refNow.Add(-time.Hour).UnixMilli()),
	})
	assert.Equal(t, StatusReturned, ResolveLoanStatusMeta(returned, StatusOptions{Now: refNow}).Key)

	garbage := LoanRecordFromDocument(map[string]any{
		"dueAt":      "invalid",
		"returnedAt": "",
	})
	assert.Equal(t, StatusActive, ResolveLoanStatusMeta(garbage, StatusOptions{Now: refNow}).Key)
}

func TestResolveLoanStatusMeta_LabelNeverChangesKey(t *testing.T) {
	loan := LoanRecord{DueAt: refNow.Add(time.Hour)}
	for _, label := range []string{"", "On Time", "overdue", "returned"} {
		meta := ResolveLoanStatusMeta(loan, StatusOptions{Now: refNow, ActiveLabel: label})
		assert.Equal(t, StatusActive, meta.Key, "label %q", label)
	}
}
