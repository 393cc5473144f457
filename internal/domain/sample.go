package domain

import (
	"context"
	"time"
)

// SentinelValue stands in for a datapoint that currently has no value.
const SentinelValue = 0.0

// Sample is one reading of the monitored datapoint.
type Sample struct {
	// Elapsed is the time since monitoring started.
	Elapsed time.Duration
	Value   float64
}

// Reader performs one blocking read of a datapoint's current value.
//
// Implementations return SentinelValue with a nil error when the datapoint
// has no value, and an error matching ErrCommunication when the broker
// could not be reached.
type Reader interface {
	Read(ctx context.Context, path string) (float64, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, path string) (float64, error)

func (f ReaderFunc) Read(ctx context.Context, path string) (float64, error) {
	return f(ctx, path)
}
