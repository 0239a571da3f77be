// Package http provides an HTTP client configured for registry API requests.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-request timeouts for metadata calls
//   - JSON decoding with typed errors (ErrNotFound, ErrMalformedResponse, ...)
//   - Chunked file downloads with progress tracking and an idle timeout
//
// # Basic Usage
//
//	client := http.NewClient(http.WithRequestTimeout(30 * time.Second))
//
//	// Fetch registry metadata
//	var versions []dto.ModrinthVersion
//	err := client.GetJSON(ctx, versionsURL, &versions)
//
//	// Download file with progress callback
//	n, err := client.Download(ctx, jarURL, file, func(written, total int64) {
//	    fmt.Printf("%d/%d\n", written, total)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
