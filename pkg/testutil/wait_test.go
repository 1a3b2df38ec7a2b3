package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	require.NoError(t, WaitFor(50*time.Millisecond, 5*time.Millisecond, func() bool {
		return true
	}))

	calls := 0
	require.NoError(t, WaitFor(time.Second, time.Millisecond, func() bool {
		calls++
		return calls == 3
	}))
	assert.Equal(t, 3, calls)

	require.Error(t, WaitFor(20*time.Millisecond, 5*time.Millisecond, func() bool {
		return false
	}))

	require.Error(t, WaitFor(50*time.Millisecond, 100*time.Millisecond, func() bool {
		return true
	}))
}

func TestIsVerbose(t *testing.T) {
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v"}))
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v=true"}))
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v=test2json"}))
	assert.False(t, isVerbose([]string{"pkg.test", "-test.v=false"}))
	assert.False(t, isVerbose([]string{"pkg.test", "-test.run=TestX"}))
}
