package extent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_ClassSizes(t *testing.T) {
	// MIN=4096, MAX=32MiB (trunk file size 64MiB / 2).
	tbl := NewTable(4096, 32*1024*1024)

	classes := make([]uint32, 0)
	for _, s := range tbl.Slots() {
		classes = append(classes, s.ClassSize)
	}

	require.NotEmpty(t, classes)
	assert.Equal(t, uint32(0), classes[0])
	assert.Equal(t, uint32(4096), classes[1])
	assert.Equal(t, uint32(32*1024*1024), classes[len(classes)-1], "top slot must be clamped to MaxSize")
	for i := 1; i < len(classes)-1; i++ {
		assert.Less(t, classes[i], classes[i+1])
	}
}

func TestSlotForInsertion_LargestClassNotExceedingSize(t *testing.T) {
	tbl := NewTable(4096, 32*1024*1024)

	// 9 KiB must land in the 8 KiB slot: the largest class it covers.
	s := tbl.SlotForInsertion(9 * 1024)
	assert.Equal(t, uint32(8*1024), s.ClassSize)

	// Anything under MIN goes to slot 0.
	s = tbl.SlotForInsertion(100)
	assert.Equal(t, uint32(0), s.ClassSize)
}

func TestSlotForAllocation_SmallestClassAtLeastSize(t *testing.T) {
	tbl := NewTable(4096, 32*1024*1024)

	// A 9 KiB request must start searching at the 16 KiB slot.
	s := tbl.SlotForAllocation(9 * 1024)
	assert.Equal(t, uint32(16*1024), s.ClassSize)

	s = tbl.SlotForAllocation(4096)
	assert.Equal(t, uint32(4096), s.ClassSize)
}

func TestSlotForAllocation_ExceedsMax(t *testing.T) {
	tbl := NewTable(4096, 32*1024*1024)

	s := tbl.SlotForAllocation(64 * 1024 * 1024)
	assert.Nil(t, s)
}

func TestIndexOf(t *testing.T) {
	tbl := NewTable(4096, 32*1024*1024)
	s := tbl.SlotForAllocation(4096)
	idx := tbl.IndexOf(s)
	require.GreaterOrEqual(t, idx, 0)
	assert.Same(t, s, tbl.Slots()[idx])
}
