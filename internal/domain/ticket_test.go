package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSLAEvaluate(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	sla := SLARecord{TargetHours: 24, StartTime: start}

	evaluated := sla.Evaluate(TicketStatusOpen, start.Add(23*time.Hour))
	assert.False(t, evaluated.IsBreached)

	evaluated = sla.Evaluate(TicketStatusInProgress, start.Add(25*time.Hour))
	assert.True(t, evaluated.IsBreached)

	// Exactly on target is not a breach.
	evaluated = sla.Evaluate(TicketStatusOpen, start.Add(24*time.Hour))
	assert.False(t, evaluated.IsBreached)

	// Non-active statuses never recompute.
	evaluated = sla.Evaluate(TicketStatusResolved, start.Add(100*time.Hour))
	assert.False(t, evaluated.IsBreached)

	// Frozen records are returned unchanged even while active.
	end := start.Add(2 * time.Hour)
	frozen := SLARecord{TargetHours: 24, StartTime: start, EndTime: &end, IsBreached: false}
	evaluated = frozen.Evaluate(TicketStatusOpen, start.Add(100*time.Hour))
	assert.False(t, evaluated.IsBreached)
}

func TestDurationMinutesRounds(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, DurationMinutes(start, start.Add(30*time.Minute)))
	assert.Equal(t, 30, DurationMinutes(start, start.Add(30*time.Minute+20*time.Second)))
	assert.Equal(t, 31, DurationMinutes(start, start.Add(30*time.Minute+40*time.Second)))
	assert.Equal(t, 0, DurationMinutes(start, start.Add(10*time.Second)))
}

func TestSumDurationsAndActiveEntry(t *testing.T) {
	entries := []TimeEntry{
		{ID: "a", DurationMinutes: 20},
		{ID: "b", DurationMinutes: 90},
		{ID: "c", IsActive: true},
	}

	assert.Equal(t, 110, SumDurations(entries))

	active := ActiveEntry(entries)
	if assert.NotNil(t, active) {
		assert.Equal(t, "c", active.ID)
	}
	assert.Nil(t, ActiveEntry(entries[:2]))
}

func TestTimeEntryFinish(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	entry := TimeEntry{StartTime: start, IsActive: true}

	entry.Finish(start.Add(42 * time.Minute))

	assert.False(t, entry.IsActive)
	assert.Equal(t, 42, entry.DurationMinutes)
	if assert.NotNil(t, entry.EndTime) {
		assert.Equal(t, start.Add(42*time.Minute), *entry.EndTime)
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, TicketStatusOpen.IsActive())
	assert.True(t, TicketStatusInProgress.IsActive())
	assert.False(t, TicketStatusResolved.IsActive())
	assert.False(t, TicketStatusClosed.IsActive())

	assert.True(t, TicketStatusClosed.Valid())
	assert.False(t, TicketStatus("ARCHIVED").Valid())
	assert.False(t, TicketPriority("URGENT").Valid())
	assert.False(t, TicketCategory("OTHER").Valid())
}
