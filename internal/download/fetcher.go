package download

import (
	"context"
	"path/filepath"

	"github.com/handiism/modfetch/internal/http"
	ioutils "github.com/handiism/modfetch/internal/io"
	"github.com/handiism/modfetch/internal/logging"
	"github.com/handiism/modfetch/internal/model"
)

// Fetcher streams one file to disk.
//
// The returned Outcome carries no package name; callers attribute it with
// Outcome.WithPackage.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher that downloads with client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads url to dest.
//
// If anything already exists at dest, Fetch returns a Skipped outcome
// without touching the network. Otherwise the body is written to a hidden
// temporary file next to dest and renamed over it once complete, so dest
// never holds a partial file. onBytes (if not nil) is called after every
// chunk with the bytes written so far and the expected total (0 if unknown).
//
// Any failure, cancellation included, removes the temporary file and
// returns a Failed outcome.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string, onBytes func(downloaded, total int64)) model.Outcome {
	filename := filepath.Base(dest)
	logger := logging.GetLogger("download.fetcher").With().Str("file", filename).Logger()

	exists, err := ioutils.Exists(dest)
	if err != nil {
		return model.Failed("", err)
	}
	if exists {
		logger.Debug().Msg("File exists, skipping")
		return model.Skipped("", filename)
	}

	file, err := ioutils.CreateAtomic(dest)
	if err != nil {
		return model.Failed("", err)
	}

	logger.Debug().Str("url", url).Str("temp", file.Name()).Msg("Downloading")

	n, err := f.client.Download(ctx, url, file, onBytes)
	if err != nil {
		if abortErr := file.Abort(); abortErr != nil {
			logger.Warn().Err(abortErr).Msg("Failed to remove temporary file")
		}
		return model.Failed("", err)
	}
	if err := file.Commit(); err != nil {
		return model.Failed("", err)
	}

	logger.Debug().Int64("bytes", n).Str("path", file.Destination()).Msg("Downloaded")
	return model.Downloaded("", filename, n)
}
