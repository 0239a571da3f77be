package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/model"
)

// Errors returned by registry backends.
var (
	ErrNetwork           = http.ErrNetwork
	ErrNotFound          = http.ErrNotFound
	ErrUnexpectedStatus  = http.ErrUnexpectedStatus
	ErrMalformedResponse = http.ErrMalformedResponse

	// ErrUnknownSource is returned when a package URL points to a host no
	// backend serves.
	ErrUnknownSource = errors.New("unsupported package source")
)

// Registry lists published versions of a project and resolves download links.
//
// Implementations must be safe for concurrent use.
type Registry interface {
	// ListVersions returns every published version of projectID in
	// registry order.
	ListVersions(ctx context.Context, projectID string) ([]model.RegistryEntry, error)

	// DownloadURL returns the link the variant's bytes are fetched from.
	DownloadURL(ctx context.Context, variant model.FileVariant) (string, error)

	// Kind identifies the backend.
	Kind() Kind
}

// Kind identifies a registry backend.
type Kind int

const (
	// Modrinth is the Modrinth v2 API.
	Modrinth Kind = iota

	// CurseForge is the CurseForge widget API.
	CurseForge
)

// MatchesFilename reports whether a request's expected filename takes part
// in version resolution. CurseForge version numbers are derived from file
// names, so only that backend uses it.
func (k Kind) MatchesFilename() bool {
	return k == CurseForge
}

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case Modrinth:
		return "modrinth"
	case CurseForge:
		return "curseforge"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseSource maps a modlist URL to the backend serving it and the project
// identifier to request.
//
// Hosts containing "modrinth" map to Modrinth and the project id is the last
// path segment. Hosts containing "curseforge" map to CurseForge and the
// project id is the whole path, which the widget API resolves as-is (a
// numeric id works too). A bare identifier without scheme or host is a
// Modrinth project id or slug.
//
// Example:
//
//	kind, id, _ := ParseSource("https://modrinth.com/mod/sodium")
//	// kind == Modrinth, id == "sodium"
//
//	kind, id, _ = ParseSource("https://www.curseforge.com/minecraft/mc-mods/jei")
//	// kind == CurseForge, id == "minecraft/mc-mods/jei"
func ParseSource(raw string) (Kind, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "", fmt.Errorf("%w: empty url", ErrUnknownSource)
	}

	if !strings.Contains(raw, "/") && !strings.Contains(raw, ":") {
		return Modrinth, raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s: %w", ErrUnknownSource, raw, err)
	}
	if u.Host == "" {
		// "modrinth.com/mod/sodium" without scheme parses as a path.
		if u, err = url.Parse("https://" + raw); err != nil || u.Host == "" {
			return 0, "", fmt.Errorf("%w: %s", ErrUnknownSource, raw)
		}
	}

	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return 0, "", fmt.Errorf("%w: %s has no project id", ErrUnknownSource, raw)
	}

	switch {
	case strings.Contains(host, "modrinth"):
		return Modrinth, lastSegment(path), nil
	case strings.Contains(host, "curseforge"):
		return CurseForge, path, nil
	default:
		return 0, "", fmt.Errorf("%w: %s", ErrUnknownSource, host)
	}
}

func lastSegment(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// Endpoints holds the base URLs of the registry backends.
type Endpoints struct {
	ModrinthURL      string
	CurseForgeURL    string
	CurseForgeCDNURL string
}

// Default base URLs.
const (
	DefaultModrinthURL      = "https://api.modrinth.com"
	DefaultCurseForgeURL    = "https://api.cfwidget.com"
	DefaultCurseForgeCDNURL = "https://edge.forgecdn.net"
)

// DefaultEndpoints returns the public registry endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ModrinthURL:      DefaultModrinthURL,
		CurseForgeURL:    DefaultCurseForgeURL,
		CurseForgeCDNURL: DefaultCurseForgeCDNURL,
	}
}

// Set maps each Kind to the backend serving it.
type Set map[Kind]Registry

// NewSet creates the Modrinth and CurseForge backends sharing one client.
func NewSet(client *http.Client, endpoints Endpoints) Set {
	return Set{
		Modrinth:   NewModrinth(client, endpoints.ModrinthURL),
		CurseForge: NewCurseForge(client, endpoints.CurseForgeURL, endpoints.CurseForgeCDNURL),
	}
}

// Lookup parses a package URL and returns its backend and project id.
func (s Set) Lookup(raw string) (Registry, string, error) {
	kind, id, err := ParseSource(raw)
	if err != nil {
		return nil, "", err
	}
	reg, ok := s[kind]
	if !ok {
		return nil, "", fmt.Errorf("%w: no %s backend configured", ErrUnknownSource, kind)
	}
	return reg, id, nil
}
