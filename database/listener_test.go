package database

import (
	"context"
	"testing"

	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentChangePayload(t *testing.T) {
	id, err := ParseContentChangePayload(" 42\n")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "abc", "-1", "0", "4.2"} {
		_, err := ParseContentChangePayload(bad)
		assert.Error(t, err, "payload %q", bad)
	}
}

func TestListenerDispatch(t *testing.T) {
	var got []uint
	l := NewContentChangeListener("", func(_ context.Context, courseID uint) {
		got = append(got, courseID)
	}, logger.Nop())

	l.dispatch(context.Background(), "7")
	l.dispatch(context.Background(), "not-a-number")
	l.dispatch(context.Background(), "9")

	assert.Equal(t, []uint{7, 9}, got)
}

func TestListenerReconnectRunsCatchUp(t *testing.T) {
	l := NewContentChangeListener("", func(context.Context, uint) {}, logger.Nop())
	// no hook set: only logs
	l.reconnected(context.Background())

	calls := 0
	assert.Same(t, l, l.OnReconnect(func(context.Context) { calls++ }))
	l.reconnected(context.Background())
	l.reconnected(context.Background())

	assert.Equal(t, 2, calls)
}

func TestListenerCloseWithoutStart(t *testing.T) {
	l := NewContentChangeListener("", func(context.Context, uint) {}, logger.Nop())
	assert.NoError(t, l.Close())
}
