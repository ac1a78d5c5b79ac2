package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "config", err: Config("load", ErrMissingInput), want: KindConfig},
		{name: "network", err: Network("get", errors.New("timeout")), want: KindNetwork},
		{name: "wrapped twice", err: fmt.Errorf("run: %w", IO("write", errors.New("disk full"))), want: KindIO},
		{name: "plain error", err: errors.New("boom"), want: KindUnknown},
		{name: "nil", err: nil, want: KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	err := Data("locate", ErrEmptyVersion)
	require.Error(t, err)
	assert.Equal(t, "locate: release has no version tag", err.Error())
	assert.ErrorIs(t, err, ErrEmptyVersion)
	assert.True(t, Is(err, KindData))
	assert.False(t, Is(err, KindConfig))
}

func TestNewNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, New(KindIO, "noop", nil))
}
