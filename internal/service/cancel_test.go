package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Cancel("unknown"), "cancel of unknown id is a no-op")

	token := r.Register("task-1")
	assert.False(t, token.Cancelled())
	assert.Equal(t, 1, r.Active())

	assert.True(t, r.Cancel("task-1"))
	assert.True(t, token.Cancelled())

	// Cancelling twice stays true and keeps returning success while the
	// task is registered.
	assert.True(t, r.Cancel("task-1"))

	r.Unregister("task-1")
	assert.Equal(t, 0, r.Active())
	assert.False(t, r.Cancel("task-1"))
}

func TestRegistryReplacesStaleToken(t *testing.T) {
	r := NewRegistry()
	old := r.Register("task-1")
	old.Cancel()

	fresh := r.Register("task-1")
	assert.False(t, fresh.Cancelled(), "re-register must start clean")
}
