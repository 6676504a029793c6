package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// BandPath derives the per-band file name for an export path: out.tif
// becomes out.<band>.tif.
func BandPath(p, band string) string {
	ext := path.Ext(p)
	if ext == "" {
		ext = ".tif"
	}
	return strings.TrimSuffix(p, path.Ext(p)) + "." + band + ext
}

// ExtractBands reads a per-band download archive. Entries are named
// <prefix>.<band>.tif and are keyed by band.
func ExtractBands(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	bands := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		band, ok := bandName(f.Name)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		bands[band] = b
	}
	return bands, nil
}

func bandName(name string) (string, bool) {
	base := path.Base(name)
	if !strings.EqualFold(path.Ext(base), ".tif") {
		return "", false
	}
	parts := strings.Split(strings.TrimSuffix(base, path.Ext(base)), ".")
	if len(parts) < 2 {
		return "", false
	}
	return parts[len(parts)-1], true
}
