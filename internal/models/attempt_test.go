package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to AttemptStatus
		want     bool
	}{
		{AttemptInProgress, AttemptPaused, true},
		{AttemptPaused, AttemptInProgress, true},
		{AttemptInProgress, AttemptSubmitted, true},
		{AttemptSubmitted, AttemptEvaluated, true},
		{AttemptPaused, AttemptSubmitted, true},
		{AttemptPaused, AttemptPaused, false},
		{AttemptEvaluated, AttemptInProgress, false},
		{AttemptSubmitted, AttemptInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestExamAttempt_Clock(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("running clock counts down from the anchor", func(t *testing.T) {
		a := &ExamAttempt{Status: AttemptInProgress, IsTimed: true, TimeRemainingSec: 600, StartedAt: start}
		assert.Equal(t, 480, a.RemainingAt(start.Add(2*time.Minute)))
		assert.False(t, a.ExpiredAt(start.Add(9*time.Minute)))
		assert.True(t, a.ExpiredAt(start.Add(10*time.Minute)))
		assert.Equal(t, 0, a.RemainingAt(start.Add(time.Hour)))
	})

	t.Run("resume moves the anchor", func(t *testing.T) {
		resumed := start.Add(time.Hour)
		a := &ExamAttempt{Status: AttemptInProgress, IsTimed: true, TimeRemainingSec: 300, StartedAt: start, ResumedAt: &resumed}
		require.NotNil(t, a.DeadlineAt())
		assert.Equal(t, resumed.Add(5*time.Minute), *a.DeadlineAt())
		assert.Equal(t, 240, a.RemainingAt(resumed.Add(time.Minute)))
	})

	t.Run("paused clock is frozen", func(t *testing.T) {
		a := &ExamAttempt{Status: AttemptPaused, IsTimed: true, TimeRemainingSec: 120, StartedAt: start}
		assert.Equal(t, 120, a.RemainingAt(start.Add(24*time.Hour)))
		assert.Nil(t, a.DeadlineAt())
		assert.False(t, a.ExpiredAt(start.Add(24*time.Hour)))
	})

	t.Run("untimed never expires", func(t *testing.T) {
		a := &ExamAttempt{Status: AttemptInProgress, StartedAt: start}
		assert.Equal(t, -1, a.RemainingAt(start.Add(24*time.Hour)))
		assert.False(t, a.ExpiredAt(start.Add(24*time.Hour)))
	})
}

func TestShuffleMapping_Validate(t *testing.T) {
	assert.NoError(t, IdentityMapping().Validate())
	assert.NoError(t, ShuffleMapping{OptionA: OptionC, OptionB: OptionA, OptionC: OptionD, OptionD: OptionB}.Validate())

	assert.ErrorIs(t, ShuffleMapping{OptionA: OptionA}.Validate(), ErrInvalidShuffleMapping)
	assert.ErrorIs(t, ShuffleMapping{OptionA: OptionA, OptionB: OptionA, OptionC: OptionC, OptionD: OptionD}.Validate(), ErrInvalidShuffleMapping)
	assert.ErrorIs(t, ShuffleMapping{OptionA: "E", OptionB: OptionB, OptionC: OptionC, OptionD: OptionD}.Validate(), ErrInvalidShuffleMapping)
}

func TestSubscriptionTier_Covers(t *testing.T) {
	assert.True(t, TierPro.Covers(TierFree))
	assert.True(t, TierEnterprise.Covers(TierPro))
	assert.True(t, TierFree.Covers(TierFree))
	assert.False(t, TierFree.Covers(TierPro))
	assert.False(t, TierPro.Covers(TierEnterprise))
}

func TestParseOptionKey(t *testing.T) {
	k, err := ParseOptionKey(" c ")
	require.NoError(t, err)
	assert.Equal(t, OptionC, k)

	_, err = ParseOptionKey("E")
	assert.ErrorIs(t, err, ErrInvalidOptionKey)
}
