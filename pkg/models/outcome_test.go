package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeriveOutcome spot-checks representative rolls.
func TestDeriveOutcome(t *testing.T) {
	tests := []struct {
		name    string
		dice    [3]int
		total   int
		outcome Outcome
	}{
		{"minimum non-triple", [3]int{1, 1, 2}, 4, OutcomeLow},
		{"low boundary", [3]int{2, 4, 4}, 10, OutcomeLow},
		{"high range lower edge", [3]int{3, 4, 4}, 11, OutcomeHigh},
		{"high range upper edge", [3]int{5, 6, 6}, 17, OutcomeHigh},
		{"mid high", [3]int{3, 4, 5}, 12, OutcomeHigh},
		{"triple in high range is low", [3]int{5, 5, 5}, 15, OutcomeLow},
		{"triple in low range is low", [3]int{2, 2, 2}, 6, OutcomeLow},
		{"triple sixes", [3]int{6, 6, 6}, 18, OutcomeLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, outcome := DeriveOutcome(tt.dice[0], tt.dice[1], tt.dice[2])
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

// TestDeriveOutcome_AllRolls walks every possible roll and checks the
// derivation rules hold: total is the sum, triples are Low, and otherwise
// High exactly for totals 11 through 17.
func TestDeriveOutcome_AllRolls(t *testing.T) {
	for d1 := 1; d1 <= 6; d1++ {
		for d2 := 1; d2 <= 6; d2++ {
			for d3 := 1; d3 <= 6; d3++ {
				total, outcome := DeriveOutcome(d1, d2, d3)
				require.Equal(t, d1+d2+d3, total, "%d-%d-%d", d1, d2, d3)
				switch {
				case d1 == d2 && d2 == d3:
					assert.Equal(t, OutcomeLow, outcome, "triple %d-%d-%d must be Low", d1, d2, d3)
				case total >= 11 && total <= 17:
					assert.Equal(t, OutcomeHigh, outcome, "%d-%d-%d total %d", d1, d2, d3, total)
				default:
					assert.Equal(t, OutcomeLow, outcome, "%d-%d-%d total %d", d1, d2, d3, total)
				}
			}
		}
	}
}

// TestOutcome_Opposite tests outcome inversion.
func TestOutcome_Opposite(t *testing.T) {
	assert.Equal(t, OutcomeLow, OutcomeHigh.Opposite())
	assert.Equal(t, OutcomeHigh, OutcomeLow.Opposite())
	assert.Equal(t, OutcomeNone, OutcomeNone.Opposite())
}

// TestOutcome_Valid tests outcome validity.
func TestOutcome_Valid(t *testing.T) {
	assert.True(t, OutcomeHigh.Valid())
	assert.True(t, OutcomeLow.Valid())
	assert.False(t, OutcomeNone.Valid())
	assert.False(t, Outcome("Tie").Valid())
}

// TestNewSession tests session construction from feed fields.
func TestNewSession(t *testing.T) {
	openedAt := time.Date(2025, 8, 20, 12, 30, 0, 0, time.UTC)

	sess := NewSession("3091224", 3091224, openedAt, [3]int{3, 4, 5})

	require.NotNil(t, sess)
	assert.Equal(t, "3091224", sess.SessionID)
	assert.Equal(t, int64(3091224), sess.SequenceNumber)
	assert.Equal(t, openedAt, sess.OpenedAt)
	assert.Equal(t, 12, sess.Total)
	assert.Equal(t, OutcomeHigh, sess.Outcome)
	assert.True(t, sess.RecordedAt.IsZero(), "RecordedAt is set by the store, not the constructor")
}
