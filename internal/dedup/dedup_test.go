package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JingliCheng/Fireball/internal/dedup"
)

func TestAccumulator_ReportsNewIDsPerPass(t *testing.T) {
	acc := dedup.NewAccumulator()

	fresh := acc.Add("j1", "j2", "j3")
	assert.ElementsMatch(t, []string{"j1", "j2", "j3"}, fresh)

	// Second scroll pass overlaps the first almost entirely.
	fresh = acc.Add("j2", "j3", "j4")
	assert.Equal(t, []string{"j4"}, fresh)

	fresh = acc.Add("j1", "j4")
	assert.Empty(t, fresh)

	assert.Equal(t, 4, acc.Len())
}

func TestAccumulator_CollapsesDuplicatesWithinBatch(t *testing.T) {
	acc := dedup.NewAccumulator()

	fresh := acc.Add("j1", "j1", "j2", "j1")
	assert.Equal(t, []string{"j1", "j2"}, fresh)
	assert.Equal(t, 2, acc.Len())
}

func TestAccumulator_Seen(t *testing.T) {
	acc := dedup.NewAccumulator()
	acc.Add("j1")

	assert.True(t, acc.Seen("j1"))
	assert.False(t, acc.Seen("j2"))
}

func TestAccumulator_IgnoresEmptyIDs(t *testing.T) {
	acc := dedup.NewAccumulator()

	fresh := acc.Add("", "j1", "")
	assert.Equal(t, []string{"j1"}, fresh)
	assert.Equal(t, 1, acc.Len())
}

func TestAccumulator_IDsKeepsFirstSeenOrder(t *testing.T) {
	acc := dedup.NewAccumulator()
	acc.Add("j3", "j1")
	acc.Add("j2", "j3")

	assert.Equal(t, []string{"j3", "j1", "j2"}, acc.IDs())
}
