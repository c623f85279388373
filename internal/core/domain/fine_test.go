package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeFine(t *testing.T) {
	due := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		returnDate time.Time
		rate       float64
		want       float64
	}{
		{
			name:       "returned before due date",
			returnDate: due.Add(-48 * time.Hour),
			rate:       2.0,
			want:       0,
		},
		{
			name:       "returned exactly at due date",
			returnDate: due,
			rate:       2.0,
			want:       0,
		},
		{
			name:       "one second late counts as one day",
			returnDate: due.Add(time.Second),
			rate:       2.0,
			want:       2.0,
		},
		{
			name:       "exactly one day late",
			returnDate: due.Add(24 * time.Hour),
			rate:       2.0,
			want:       2.0,
		},
		{
			name:       "partial second day rounds up",
			returnDate: due.Add(24*time.Hour + time.Minute),
			rate:       2.0,
			want:       4.0,
		},
		{
			name:       "fifteen days late",
			returnDate: due.Add(15 * 24 * time.Hour),
			rate:       2.0,
			want:       30.0,
		},
		{
			name:       "custom rate",
			returnDate: due.Add(3 * 24 * time.Hour),
			rate:       0.5,
			want:       1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFine(due, tt.returnDate, tt.rate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeFineTimezoneInvariant(t *testing.T) {
	due := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	returned := due.Add(36 * time.Hour)

	bangkok := time.FixedZone("ICT", 7*3600)
	got := ComputeFine(due.In(bangkok), returned.In(bangkok), 2.0)

	assert.Equal(t, ComputeFine(due, returned, 2.0), got)
	assert.Equal(t, 4.0, got)
}

func TestLoanEffectiveStatus(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status LoanStatus
		due    time.Time
		want   LoanStatus
	}{
		{"borrowed before due", StatusBorrowed, now.Add(time.Hour), StatusBorrowed},
		{"borrowed at due instant", StatusBorrowed, now, StatusBorrowed},
		{"borrowed past due reads overdue", StatusBorrowed, now.Add(-time.Hour), StatusOverdue},
		{"persisted overdue stays overdue", StatusOverdue, now.Add(-time.Hour), StatusOverdue},
		{"returned never flips", StatusReturned, now.Add(-time.Hour), StatusReturned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &Loan{Status: tt.status, DueDate: tt.due}
			assert.Equal(t, tt.want, loan.EffectiveStatus(now))
		})
	}
}

func TestLoanStatusIsActive(t *testing.T) {
	assert.True(t, StatusBorrowed.IsActive())
	assert.True(t, StatusOverdue.IsActive())
	assert.False(t, StatusReturned.IsActive())
}
