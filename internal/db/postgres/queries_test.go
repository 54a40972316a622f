package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithQueryTimeout_SetsDeadline(t *testing.T) {
	ctx, cancel := WithQueryTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

func TestWithQueryTimeout_ZeroLeavesContextUnbounded(t *testing.T) {
	parent := context.Background()
	ctx, cancel := WithQueryTimeout(parent, 0)
	defer cancel()

	_, ok := ctx.Deadline()
	require.False(t, ok)
	require.Equal(t, parent, ctx)
}

// Дедлайн родителя короче таймаута — побеждает родитель.
func TestWithQueryTimeout_ParentDeadlineWins(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()

	ctx, cancel := WithQueryTimeout(parent, time.Hour)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second/2)
}
