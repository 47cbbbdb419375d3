package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestValue_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Value(context.Background(), fastConfig(), "save", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("database is locked")
		}
		return "rec-1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "rec-1", got)
	assert.Equal(t, 3, calls)
}

func TestValue_PermanentErrorFailsFast(t *testing.T) {
	calls := 0
	_, err := Value(context.Background(), fastConfig(), "save", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("UNIQUE constraint failed: decisions.parcel_id")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestValue_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Value(context.Background(), fastConfig(), "save", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("deadlock detected")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestValue_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Value(ctx, fastConfig(), "save", func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("database is locked")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_WrapsValue(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), "migrate", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("conn closed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"pg deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{"pg serialization", errors.New("could not serialize access due to concurrent update"), true},
		{"closed pool conn", errors.New("conn closed"), true},
		{"unique violation", errors.New(`duplicate key value violates unique constraint "decisions_parcel_id_analyzed_at_key"`), false},
		{"schema error", errors.New(`relation "decisions" does not exist`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
