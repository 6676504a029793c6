package export

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

// Downloader fetches a computed per-band archive from the imagery platform.
type Downloader interface {
	Download(ctx context.Context, d gridmet.Descriptor) ([]byte, error)
}

// Exporter downloads descriptors and writes one file per band to a sink.
type Exporter struct {
	downloader Downloader
	sink       Sink
	logger     *zap.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *zap.Logger, downloader Downloader, sink Sink) *Exporter {
	return &Exporter{
		downloader: downloader,
		sink:       sink,
		logger:     logger,
	}
}

// SinkName identifies where files are written.
func (e *Exporter) SinkName() string {
	return e.sink.Name()
}

// Export runs the descriptor on the platform and returns the written paths.
func (e *Exporter) Export(ctx context.Context, d gridmet.Descriptor) ([]string, error) {
	archive, err := e.downloader.Download(ctx, d)
	if err != nil {
		return nil, err
	}

	bands, err := ExtractBands(archive)
	if err != nil {
		return nil, err
	}
	if _, ok := bands[d.Band]; !ok {
		return nil, fmt.Errorf("archive has no %q band", d.Band)
	}

	names := make([]string, 0, len(bands))
	for band := range bands {
		names = append(names, band)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, band := range names {
		p := d.Export.Path
		if d.Export.FilePerBand {
			p = BandPath(p, band)
		}
		if err := e.sink.Write(ctx, p, bands[band]); err != nil {
			return written, err
		}
		e.logger.Info("wrote band",
			zap.String("band", band),
			zap.String("path", p),
			zap.String("sink", e.sink.Name()),
			zap.Int("bytes", len(bands[band])),
		)
		written = append(written, p)
	}
	return written, nil
}
