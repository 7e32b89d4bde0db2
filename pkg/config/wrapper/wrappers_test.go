package wrapper

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/config"
	"github.com/code-payments/code-custody/pkg/config/memory"
)

type wrapped[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type wrapperTestCase[T any] struct {
	defaultValue T
	override     T
	raw          []byte
	parsed       T
	invalid      []byte
}

func testWrapper[T any](t *testing.T, mock *memory.Config, wrapper wrapped[T], tc wrapperTestCase[T]) {
	ctx := context.Background()

	assertValue := func(expected T, expectErr bool) {
		val, err := wrapper.GetSafe(ctx)
		if expectErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, expected, val)
		assert.Equal(t, expected, wrapper.Get(ctx))
	}

	// Return the default value when no override is set
	assertValue(tc.defaultValue, false)

	// The overriden value is returned when set
	mock.SetValue(tc.override)
	assertValue(tc.override, false)

	// The last observed config value is returned on error
	mock.InduceErrors()
	assertValue(tc.override, true)

	// The default value is returned when the override no longer has a value
	mock.StopInducingErrors()
	mock.ClearValue()
	assertValue(tc.defaultValue, false)

	// Env and viper sources hand over raw bytes
	mock.SetValue(tc.raw)
	assertValue(tc.parsed, false)

	if tc.invalid != nil {
		mock.SetValue(tc.invalid)
		assertValue(tc.parsed, true)
	}

	mock.SetValue(struct{}{})
	val, err := wrapper.GetSafe(ctx)
	assert.Equal(t, ErrUnsuportedConversion, err)
	assert.Equal(t, tc.parsed, val)

	// Shutdown via the wrapper
	wrapper.Shutdown()
	_, err = wrapper.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testWrapper[bool](t, mock, NewBoolConfig(mock, true), wrapperTestCase[bool]{
		defaultValue: true,
		override:     false,
		raw:          []byte("false"),
		parsed:       false,
		invalid:      []byte("maybe"),
	})
}

func TestUint64Config(t *testing.T) {
	mock := memory.NewConfig(nil)
	testWrapper[uint64](t, mock, NewUint64Config(mock, math.MaxUint64), wrapperTestCase[uint64]{
		defaultValue: math.MaxUint64,
		override:     0,
		raw:          []byte("1024"),
		parsed:       1024,
		invalid:      []byte("-1"),
	})

	mock = memory.NewConfig(uint(42))
	assert.EqualValues(t, 42, NewUint64Config(mock, 0).Get(context.Background()))
}

func TestStringConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testWrapper[string](t, mock, NewStringConfig(mock, "memory"), wrapperTestCase[string]{
		defaultValue: "memory",
		override:     "postgres",
		raw:          []byte("leveldb"),
		parsed:       "leveldb",
	})
}

func TestDurationConfig(t *testing.T) {
	mock := memory.NewConfig(nil)
	testWrapper[time.Duration](t, mock, NewDurationConfig(mock, time.Hour), wrapperTestCase[time.Duration]{
		defaultValue: time.Hour,
		override:     time.Second,
		raw:          []byte("1m30s"),
		parsed:       90 * time.Second,
		invalid:      []byte("soon"),
	})
}
