package lazy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadOnce(t *testing.T) {
	var loads, unloads int
	l := NewLoader(
		func() error {
			loads++
			return nil
		},
		func() {
			unloads++
		},
	)

	assert.False(t, l.Loaded())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.LoadAndLock())
		l.Unlock()
	}
	assert.Equal(t, 1, loads, "expected a single load across repeated locks")
	assert.True(t, l.Loaded())

	l.Unload()
	assert.Equal(t, 1, unloads)
	assert.False(t, l.Loaded())

	// loading again after an unload performs a fresh load
	require.NoError(t, l.LoadAndLock())
	l.Unlock()
	assert.Equal(t, 2, loads)
}

func Test_LoadedConcurrent(t *testing.T) {
	l := NewLoader(func() error { return nil }, func() {})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			l.Loaded()
		}
	}()

	require.NoError(t, l.LoadAndLock())
	l.Unlock()
	<-done

	assert.True(t, l.Loaded())
}

func Test_LoadError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(func() error { return boom }, func() {})

	err := l.LoadAndLock()
	require.Error(t, err)
	assert.False(t, l.Loaded())

	// the error is sticky until Unload resets the loader
	require.Error(t, l.LoadAndLock())
}
