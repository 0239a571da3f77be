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

// CurseForgeRegistry reads files from the CurseForge widget API and builds
// CDN download links for them.
//
// The widget API lists files newest first. It does not publish download
// links, so DownloadURL derives one from the file id and name:
//
//	https://edge.forgecdn.net/files/{id/1000}/{id%1000}/{name}
type CurseForgeRegistry struct {
	client  *http.Client
	baseURL string
	cdnURL  string
}

// NewCurseForge creates a CurseForge backend. Empty URLs select the defaults.
func NewCurseForge(client *http.Client, baseURL, cdnURL string) *CurseForgeRegistry {
	if baseURL == "" {
		baseURL = DefaultCurseForgeURL
	}
	if cdnURL == "" {
		cdnURL = DefaultCurseForgeCDNURL
	}
	return &CurseForgeRegistry{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		cdnURL:  strings.TrimRight(cdnURL, "/"),
	}
}

// Kind returns CurseForge.
func (r *CurseForgeRegistry) Kind() Kind { return CurseForge }

// ListVersions fetches GET {base}/{id}. Every listed file becomes one entry.
func (r *CurseForgeRegistry) ListVersions(ctx context.Context, projectID string) ([]model.RegistryEntry, error) {
	endpoint := r.baseURL + "/" + escapePath(projectID)

	logger := logging.GetLogger("registry.curseforge")
	logger.Debug().Str("project", projectID).Str("url", endpoint).Msg("Listing files")

	var project dto.WidgetProject
	if err := r.client.GetJSON(ctx, endpoint, &project); err != nil {
		return nil, fmt.Errorf("list curseforge files of %s: %w", projectID, err)
	}

	entries := make([]model.RegistryEntry, 0, len(project.Files))
	for i := range project.Files {
		entries = append(entries, project.Files[i].ToEntry())
	}

	logger.Debug().Str("project", projectID).Int("files", len(entries)).Msg("Files listed")
	return entries, nil
}

// DownloadURL builds the CDN link for a widget file.
//
// Example:
//
//	reg.DownloadURL(ctx, model.FileVariant{ID: 4712866, Filename: "jei-1.20.1-fabric-15.2.0.27.jar"})
//	// "https://edge.forgecdn.net/files/4712/866/jei-1.20.1-fabric-15.2.0.27.jar"
func (r *CurseForgeRegistry) DownloadURL(_ context.Context, variant model.FileVariant) (string, error) {
	if variant.URL != "" {
		return variant.URL, nil
	}
	if variant.ID <= 0 || variant.Filename == "" {
		return "", fmt.Errorf("%w: file %q has no id", ErrMalformedResponse, variant.Filename)
	}
	return fmt.Sprintf("%s/files/%d/%d/%s",
		r.cdnURL, variant.ID/1000, variant.ID%1000, url.PathEscape(variant.Filename)), nil
}

// escapePath escapes each segment of a slash separated project path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
