package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a source of a raw, untyped configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Value is a typed config.Config.
type Value[T any] interface {
	// Get returns the latest value, or the last known value on error
	Get(ctx context.Context) T

	// GetSafe returns the latest value and propagates any error
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

type (
	Duration = Value[time.Duration]
	Float64  = Value[float64]
	String   = Value[string]
	Uint64   = Value[uint64]
)
