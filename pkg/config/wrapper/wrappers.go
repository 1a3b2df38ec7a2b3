package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Converter parses a raw config value into T. Raw environment values arrive
// as []byte.
type Converter[T any] func(raw interface{}) (T, error)

// Wrapper adapts a raw config.Config into a typed one with a default value.
type Wrapper[T any] struct {
	override     config.Config
	defaultValue T
	convert      Converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New returns a typed wrapper over override
func New[T any](override config.Config, defaultValue T, convert Converter[T]) *Wrapper[T] {
	return &Wrapper[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (w *Wrapper[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := w.override.Get(ctx)

	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if err == config.ErrNoValue {
		w.lastValue = w.defaultValue
		return w.defaultValue, nil
	} else if err != nil {
		return w.lastValue, err
	}

	value, err := w.convert(raw)
	if err != nil {
		return w.lastValue, err
	}

	w.lastValue = value
	return value, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (w *Wrapper[T]) Get(ctx context.Context) T {
	val, _ := w.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (w *Wrapper[T]) Shutdown() {
	w.override.Shutdown()
}

// NewStringConfig returns a string config wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return New(override, defaultValue, func(raw interface{}) (string, error) {
		switch typed := raw.(type) {
		case []byte:
			return string(typed), nil
		case string:
			return typed, nil
		default:
			return "", ErrUnsuportedConversion
		}
	})
}

// NewDurationConfig returns a duration config wrapper
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return New(override, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch typed := raw.(type) {
		case []byte:
			return time.ParseDuration(string(typed))
		case time.Duration:
			return typed, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewFloat64Config returns a float64 config wrapper
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return New(override, defaultValue, func(raw interface{}) (float64, error) {
		switch typed := raw.(type) {
		case []byte:
			return strconv.ParseFloat(string(typed), 64)
		case float64:
			return typed, nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewUint64Config returns a uint64 config wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return New(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch typed := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(typed), 10, 64)
		case uint64:
			return typed, nil
		case uint:
			return uint64(typed), nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}
