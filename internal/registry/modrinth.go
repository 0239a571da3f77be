package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/logging"
	"github.com/handiism/modfetch/internal/model"
	"github.com/handiism/modfetch/internal/registry/dto"
)

// ModrinthRegistry reads versions from the Modrinth v2 API.
//
// Example usage:
//
//	reg := NewModrinth(http.NewClient(), DefaultModrinthURL)
//	entries, err := reg.ListVersions(ctx, "sodium")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    fmt.Println(e.VersionNumber)
//	}
type ModrinthRegistry struct {
	client  *http.Client
	baseURL string
}

// NewModrinth creates a Modrinth backend. An empty baseURL selects
// DefaultModrinthURL.
func NewModrinth(client *http.Client, baseURL string) *ModrinthRegistry {
	if baseURL == "" {
		baseURL = DefaultModrinthURL
	}
	return &ModrinthRegistry{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Kind returns Modrinth.
func (r *ModrinthRegistry) Kind() Kind { return Modrinth }

// ListVersions fetches GET {base}/v2/project/{id}/version.
func (r *ModrinthRegistry) ListVersions(ctx context.Context, projectID string) ([]model.RegistryEntry, error) {
	endpoint := fmt.Sprintf("%s/v2/project/%s/version", r.baseURL, url.PathEscape(projectID))

	logger := logging.GetLogger("registry.modrinth")
	logger.Debug().Str("project", projectID).Str("url", endpoint).Msg("Listing versions")

	var versions []dto.ModrinthVersion
	if err := r.client.GetJSON(ctx, endpoint, &versions); err != nil {
		return nil, fmt.Errorf("list modrinth versions of %s: %w", projectID, err)
	}

	entries := make([]model.RegistryEntry, 0, len(versions))
	for i := range versions {
		entries = append(entries, versions[i].ToEntry())
	}

	logger.Debug().Str("project", projectID).Int("versions", len(entries)).Msg("Versions listed")
	return entries, nil
}

// DownloadURL returns the link Modrinth published with the file.
func (r *ModrinthRegistry) DownloadURL(_ context.Context, variant model.FileVariant) (string, error) {
	if variant.URL == "" {
		return "", fmt.Errorf("%w: %s has no download url", ErrMalformedResponse, variant.Filename)
	}
	return variant.URL, nil
}
