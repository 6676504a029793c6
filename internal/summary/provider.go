package summary

import (
	"context"
	"time"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

// Exporter runs a descriptor on the imagery platform and writes its output.
type Exporter interface {
	Export(ctx context.Context, d gridmet.Descriptor) ([]string, error)
	SinkName() string
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	Save(rec Record)
	Get(id string) (Record, error)
	Latest(variable string) (Record, error)
	Range(variable string, from, to time.Time) ([]Record, error)
}
