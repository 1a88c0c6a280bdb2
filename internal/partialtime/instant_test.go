package partialtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstantConsistency(t *testing.T) {
	p := MustNew(12, 10, Absent)

	_, err := NewInstant(p, time.Date(2024, 1, 12, 11, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInconsistent)

	i, err := NewInstant(p, time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, ok := i.Complete()
	assert.True(t, ok)

	_, err = NewInstant(PartialDateTime{}, time.Time{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCompleteAscendingMonthRollover(t *testing.T) {
	first := PartialInstant(MustNew(31, 23, Absent))
	second := PartialInstant(MustNew(1, 1, Absent))
	anchor := time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, CompleteAscending(anchor, NotBefore, &first, &second))

	t1, ok := first.Complete()
	require.True(t, ok)
	t2, ok := second.Complete()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), t1)
	assert.Equal(t, time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC), t2)
	assert.False(t, t2.Before(t1))
}

func TestCompleteAscendingPeriods(t *testing.T) {
	issue := PartialInstant(MustNew(12, 11, 30).WithZone(time.UTC))
	validity := NewPeriod(MustNew(12, 12, Absent), MustNew(13, 12, Absent))
	becmg := NewPeriod(MustNew(12, 22, Absent), MustNew(12, 24, Absent))
	tempo := NewPeriod(MustNew(12, 20, Absent), MustNew(13, 2, Absent))
	anchor := time.Date(2024, 5, 12, 11, 0, 0, 0, time.UTC)

	require.NoError(t, CompleteAscending(anchor, NotBefore, &issue, &validity, &becmg, &tempo))

	ts := func(i *Instant) time.Time {
		v, ok := i.Complete()
		require.True(t, ok)
		return v
	}
	assert.Equal(t, time.Date(2024, 5, 12, 11, 30, 0, 0, time.UTC), ts(&issue))
	assert.Equal(t, time.Date(2024, 5, 12, 12, 0, 0, 0, time.UTC), ts(validity.Start))
	assert.Equal(t, time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC), ts(validity.End))
	assert.Equal(t, time.Date(2024, 5, 12, 22, 0, 0, 0, time.UTC), ts(becmg.Start))
	assert.Equal(t, time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), ts(becmg.End))
	// A later period may start before the previous one ends, but never before its start.
	assert.Equal(t, time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC), ts(tempo.Start))
}

func TestCompleteAscendingPeriodNeedsHour(t *testing.T) {
	p := NewPeriod(MustNew(12, Absent, Absent), MustNew(13, Absent, Absent))
	err := CompleteAscending(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), NotBefore, &p)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCompleteAscendingOpenPeriod(t *testing.T) {
	end := PartialInstant(MustNew(Absent, 18, 0))
	p := Period{End: &end}
	after := PartialInstant(MustNew(Absent, 19, 0))
	anchor := time.Date(2024, 5, 12, 16, 0, 0, 0, time.UTC)

	require.NoError(t, CompleteAscending(anchor, NotBefore, &p, &after))
	got, _ := after.Complete()
	assert.Equal(t, time.Date(2024, 5, 12, 19, 0, 0, 0, time.UTC), got)
}

func TestInstantJSON(t *testing.T) {
	i, err := NewInstant(MustNew(12, 10, 30).WithZone(time.UTC), time.Date(2024, 1, 12, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	data, err := json.Marshal(i)
	require.NoError(t, err)
	assert.JSONEq(t, `{"partial":"12T10:30Z","complete":"2024-01-12T10:30:00Z"}`, string(data))

	var back Instant
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, i.String(), back.String())

	assert.Error(t, json.Unmarshal([]byte(`{"partial":"12T10:30Z","complete":"2024-01-12T11:30:00Z"}`), &back))
}
