// Package feedbackutils builds feedback stores from configuration.
package feedbackutils

import (
	"context"
	"fmt"

	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/inmemory"
	"github.com/clusterlens/clusterlens/pkg/feedback/jsonl"
	"github.com/clusterlens/clusterlens/pkg/feedback/postgres"
	"github.com/clusterlens/clusterlens/pkg/feedback/sqlite"
)

// NewStoreOpts selects a feedback provider.
type NewStoreOpts struct {
	// ProviderType is one of jsonl, sqlite, postgres or memory.
	ProviderType string

	// Target is a file path for jsonl and sqlite, or a connection string for
	// postgres.
	Target string
}

// NewStore builds the store named by o.ProviderType.
func NewStore(ctx context.Context, o *NewStoreOpts) (feedback.Store, error) {
	var (
		s   feedback.Store
		err error
	)
	switch o.ProviderType {
	case "", "jsonl":
		s, err = jsonl.New(o.Target)
	case "sqlite":
		s, err = sqlite.New(ctx, o.Target)
	case "postgres":
		s, err = postgres.New(ctx, o.Target)
	case "memory":
		s = inmemory.New()
	default:
		return nil, fmt.Errorf("unsupported feedback provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
