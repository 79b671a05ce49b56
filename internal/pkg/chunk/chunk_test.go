package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	assert.Nil(t, Split([]string{}, 10))
	assert.Nil(t, Split[string](nil, 10))
}

func TestSplit_ExactMultiple(t *testing.T) {
	chunks := Split([]int{1, 2, 3, 4}, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, []int{1, 2}, chunks[0])
	assert.Equal(t, []int{3, 4}, chunks[1])
}

func TestSplit_Remainder(t *testing.T) {
	items := make([]int, 850)
	chunks := Split(items, 400)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 400)
	assert.Len(t, chunks[1], 400)
	assert.Len(t, chunks[2], 50)
}

func TestSplit_SizeLargerThanInput(t *testing.T) {
	chunks := Split([]int{1, 2}, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, []int{1, 2}, chunks[0])
}
