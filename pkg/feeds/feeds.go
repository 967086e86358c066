// Package feeds ingests the watchlists. Downloaders fetch raw list bytes,
// parsers turn them into entities, and the refresher fans both out per
// source, tolerating individual source failures, then rebuilds the index in
// one atomic swap. The existing index stays live for the whole refresh.
package feeds

import (
	"context"

	"github.com/sentriq/screend/pkg/entity"
)

// Downloader fetches one source's raw list bytes.
type Downloader interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Parser turns one source's raw bytes into entities. Parsers populate every
// field except Prepared; the index owns preparation.
type Parser interface {
	Parse(data []byte) ([]*entity.Entity, error)
}

// SourceFeed binds a watchlist source to its downloader and parser.
type SourceFeed struct {
	Source     entity.Source
	Downloader Downloader
	Parser     Parser
}
