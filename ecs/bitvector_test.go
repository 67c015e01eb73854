package ecs_test

import (
	"testing"

	"github.com/mateusmp/bitengine/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitVectorRoundTrip(t *testing.T) {
	for _, n := range []int{1, 7, 8, 9, 63, 64, 65, 500, 1024} {
		v := ecs.NewBitVector(n)
		require.Equal(t, n, v.Len())

		for i := 0; i < n; i++ {
			require.NoError(t, v.Set(i))
			set, err := v.Test(i)
			require.NoError(t, err)
			assert.True(t, set, "n=%d i=%d", n, i)
			assert.Equal(t, 1, v.Count(), "only bit %d should be set", i)

			require.NoError(t, v.Unset(i))
			set, err = v.Test(i)
			require.NoError(t, err)
			assert.False(t, set)
			assert.Equal(t, 0, v.Count())
		}
	}
}

func TestBitVectorSetLeavesOthersUntouched(t *testing.T) {
	v := ecs.NewBitVector(100)
	for i := 0; i < 100; i += 3 {
		require.NoError(t, v.Set(i))
	}
	require.NoError(t, v.Set(50))
	require.NoError(t, v.Unset(51))

	for i := 0; i < 100; i++ {
		set, err := v.Test(i)
		require.NoError(t, err)
		assert.Equal(t, i%3 == 0 || i == 50, set, "bit %d", i)
	}
}

func TestBitVectorOutOfRange(t *testing.T) {
	v := ecs.NewBitVector(10)

	assert.ErrorIs(t, v.Set(10), ecs.ErrOutOfRange)
	assert.ErrorIs(t, v.Unset(-1), ecs.ErrOutOfRange)
	_, err := v.Test(11)
	assert.ErrorIs(t, err, ecs.ErrOutOfRange)

	v.Resize(20)
	assert.NoError(t, v.Set(19))
}

func TestBitVectorPushBack(t *testing.T) {
	var v ecs.BitVector
	for i := 0; i < 20; i++ {
		v.PushBack(i%2 == 0)
	}
	assert.Equal(t, 20, v.Len())
	assert.Equal(t, 10, v.Count())

	for i := 0; i < 20; i++ {
		set, err := v.Test(i)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 0, set)
	}
}

func TestBitVectorResizeZeroFills(t *testing.T) {
	v := ecs.NewBitVector(4)
	require.NoError(t, v.Set(3))
	v.Resize(2)
	assert.Equal(t, 4, v.Len(), "shrinking is ignored")

	v.Resize(33)
	for i := 4; i < 33; i++ {
		set, err := v.Test(i)
		require.NoError(t, err)
		assert.False(t, set)
	}
}

func TestBitVectorClear(t *testing.T) {
	v := ecs.NewBitVector(70)
	for i := 0; i < 70; i += 7 {
		require.NoError(t, v.Set(i))
	}
	v.Clear()
	assert.Equal(t, 0, v.Count())
	assert.Equal(t, 70, v.Len())
}
