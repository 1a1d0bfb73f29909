package probe

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Func represents a check that returns an error when a resource is
// unavailable.
type Func func(ctx context.Context) error

// PingFunc is a plain availability check.
type PingFunc func(ctx context.Context) error

// NewPingProbe wraps fn with the probe name in its errors.
func NewPingProbe(name string, fn PingFunc) Func {
	return func(ctx context.Context) error {
		if fn == nil {
			return fmt.Errorf("%s probe: ping function is nil", name)
		}
		if err := fn(contextOrBackground(ctx)); err != nil {
			return fmt.Errorf("%s probe failed: %w", name, err)
		}
		return nil
	}
}

// MongoPinger captures the subset of *mongo.Client used for readiness checks.
type MongoPinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// NewMongoPingProbe pings MongoDB through client. A nil readPref means
// readpref.Primary.
func NewMongoPingProbe(client MongoPinger, readPref *readpref.ReadPref) Func {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("mongo probe: client is nil")
		}

		rp := readPref
		if rp == nil {
			rp = readpref.Primary()
		}

		if err := client.Ping(contextOrBackground(ctx), rp); err != nil {
			return fmt.Errorf("mongo probe failed: %w", err)
		}
		return nil
	}
}

// DocumentSource produces an encoded OpenAPI document, like spec.Builder.
type DocumentSource interface {
	Document(ctx context.Context) ([]byte, error)
}

// NewDocumentProbe fails while src cannot produce a non-empty document.
func NewDocumentProbe(src DocumentSource) Func {
	return func(ctx context.Context) error {
		if src == nil {
			return errors.New("openapi probe: document source is nil")
		}
		data, err := src.Document(contextOrBackground(ctx))
		if err != nil {
			return fmt.Errorf("openapi probe failed: %w", err)
		}
		if len(data) == 0 {
			return errors.New("openapi probe: document is empty")
		}
		return nil
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
