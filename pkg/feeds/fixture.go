package feeds

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sentriq/screend/pkg/entity"
)

// fixtureData is a curated sample of publicly designated entities across all
// four sources. It serves as the default feed so the binary screens out of
// the box and tests run against deterministic data.
//
//go:embed fixtures/entities.yaml
var fixtureData []byte

// fixtureFile is the on-disk shape of the embedded list.
type fixtureFile struct {
	Entities []*entity.Entity `yaml:"entities"`
}

// FixtureFeed serves one source from the embedded sample. It is both the
// Downloader and the Parser for that source.
type FixtureFeed struct {
	source entity.Source
}

// NewFixtureFeed returns the embedded feed for one source.
func NewFixtureFeed(source entity.Source) *FixtureFeed {
	return &FixtureFeed{source: source}
}

// Fetch returns the embedded bytes; there is nothing to download.
func (f *FixtureFeed) Fetch(ctx context.Context) ([]byte, error) {
	return fixtureData, nil
}

// Parse decodes the embedded list and keeps the records belonging to this
// feed's source.
func (f *FixtureFeed) Parse(data []byte) ([]*entity.Entity, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture feed: %w", err)
	}
	out := make([]*entity.Entity, 0, len(file.Entities))
	for _, e := range file.Entities {
		if e != nil && e.Source == f.source {
			out = append(out, e)
		}
	}
	return out, nil
}
