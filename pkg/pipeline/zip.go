package pipeline

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/backdrop/pkg/buildinfo"
	"github.com/matzehuels/backdrop/pkg/catalog"
	"github.com/matzehuels/backdrop/pkg/errors"
)

const (
	// DefaultArchiveName is the zip export file name.
	DefaultArchiveName = "screenshots.zip"

	// ManifestName is the manifest entry inside the archive.
	ManifestName = "manifest.json"
)

// Manifest describes the contents of a zip export.
type Manifest struct {
	BatchID   string           `json:"batch_id"`
	CreatedAt time.Time        `json:"created_at"`
	Version   string           `json:"version"`
	Items     []Output         `json:"items"`
	Formats   []catalog.Format `json:"formats"`
}

// NewManifest stamps a fresh batch id on outputs.
func NewManifest(outputs []Output, formats []catalog.Format) Manifest {
	return Manifest{
		BatchID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Version:   buildinfo.Version,
		Items:     outputs,
		Formats:   formats,
	}
}

// WriteZip writes every output PNG plus manifest.json to w. PNGs are
// stored uncompressed since they already are.
func WriteZip(w io.Writer, m Manifest) error {
	zw := zip.NewWriter(w)
	for _, o := range m.Items {
		if err := errors.ValidateFileName(o.File); err != nil {
			return err
		}
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     o.File,
			Method:   zip.Store,
			Modified: m.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("zip %s: %w", o.File, err)
		}
		if _, err := f.Write(o.PNG); err != nil {
			return fmt.Errorf("zip %s: %w", o.File, err)
		}
	}

	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("zip manifest: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("zip manifest: %w", err)
	}
	return zw.Close()
}
