// Package resolve picks the published version and file that satisfy a
// package request.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/handiism/modfetch/internal/model"
)

var (
	// ErrVersionNotFound is returned when no published version matches any
	// candidate string.
	ErrVersionNotFound = errors.New("version not found")

	// ErrNoVariant is returned when the matched version has no files.
	ErrNoVariant = errors.New("version has no files")
)

// DefaultLoaderTag is the loader preferred when none is configured.
const DefaultLoaderTag = "fabric"

// Candidates returns the strings a published version number is matched
// against, in order: the requested version, the version with "+loader" and
// "-loader" appended, and, when withFilename is set, the expected filename
// stem.
//
// An empty requested version contributes nothing, so a request without a
// version only matches through its filename. Empty strings are never
// returned because they would match every version.
//
// Example:
//
//	Candidates(model.PackageRequest{Version: "0.5.3"}, "fabric", false)
//	// ["0.5.3", "0.5.3+fabric", "0.5.3-fabric"]
func Candidates(req model.PackageRequest, loader string, withFilename bool) []string {
	var out []string
	if req.Version != "" {
		out = append(out, req.Version)
		if loader != "" {
			out = append(out, req.Version+"+"+loader, req.Version+"-"+loader)
		}
	}
	if !withFilename {
		return out
	}
	if stem := req.FilenameStem(); stem != "" {
		out = append(out, stem)
	}
	return out
}

// Version returns the first entry, in registry order, whose version number
// contains or ends with one of the candidates. Matching is case-sensitive.
//
// Returns ErrVersionNotFound when nothing matches.
func Version(entries []model.RegistryEntry, candidates []string) (model.RegistryEntry, error) {
	for _, entry := range entries {
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if strings.Contains(entry.VersionNumber, c) || strings.HasSuffix(entry.VersionNumber, c) {
				return entry, nil
			}
		}
	}
	return model.RegistryEntry{}, fmt.Errorf("%w: no match for %q", ErrVersionNotFound, candidates)
}

// Variant returns the first file whose name contains loader
// (case-insensitive), or the first file when none does.
//
// Returns ErrNoVariant when the entry has no files.
func Variant(entry model.RegistryEntry, loader string) (model.FileVariant, error) {
	if len(entry.Files) == 0 {
		return model.FileVariant{}, fmt.Errorf("%w: %s", ErrNoVariant, entry.VersionNumber)
	}
	if loader != "" {
		tag := strings.ToLower(loader)
		for _, f := range entry.Files {
			if strings.Contains(strings.ToLower(f.Filename), tag) {
				return f, nil
			}
		}
	}
	return entry.Files[0], nil
}

// Resolve runs Candidates, Version and Variant for one request.
func Resolve(req model.PackageRequest, entries []model.RegistryEntry, loader string, withFilename bool) (model.RegistryEntry, model.FileVariant, error) {
	entry, err := Version(entries, Candidates(req, loader, withFilename))
	if err != nil {
		return model.RegistryEntry{}, model.FileVariant{}, err
	}
	variant, err := Variant(entry, loader)
	if err != nil {
		return entry, model.FileVariant{}, err
	}
	return entry, variant, nil
}
