package modelstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kmscale/model"
)

func TestLockUpdateGetUnlock(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Lock("a"))

	m := &model.Output{Names: []string{"x"}}
	require.NoError(t, s.Update("a", m))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Same(t, m, got)

	require.NoError(t, s.Unlock("a"))
}

func TestUpdateWithoutLockFails(t *testing.T) {
	s := NewMemStore()
	err := s.Update("a", &model.Output{})
	assert.Error(t, err)
}

func TestDoubleLockFails(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Lock("a"))
	assert.Error(t, s.Lock("a"))
}

func TestGetMissingKey(t *testing.T) {
	s := NewMemStore()
	_, ok := s.Get("missing")
	assert.False(t, ok)
}
