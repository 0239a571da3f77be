package model

import (
	"path/filepath"
	"strings"
)

// PackageRequest represents a single package to resolve and download.
//
// PackageRequest is created once per modlist entry and is never modified
// afterwards, so it can be shared freely between workers.
//
// Example:
//
//	req := PackageRequest{
//	    URL:      "https://www.curseforge.com/minecraft/mc-mods/jei",
//	    Version:  "15.2.0.27",
//	    Filename: "jei-1.20.1-fabric-15.2.0.27.jar",
//	    Name:     "JEI",
//	}
type PackageRequest struct {
	// URL identifies the registry host and the project id.
	// Example: "https://modrinth.com/mod/sodium"
	URL string `json:"url"`

	// Version is the requested version string, matched fuzzily against
	// the versions published by the registry.
	Version string `json:"version"`

	// Filename is the expected artifact filename. Optional; when set it
	// contributes an extra candidate to version resolution.
	Filename string `json:"filename,omitempty"`

	// Name is the display name used in log lines and summaries.
	Name string `json:"name"`
}

// FilenameStem returns the expected filename with its extension, the display
// name and any surrounding separator characters removed.
//
// The result is empty when no filename is set or nothing is left after
// stripping.
//
// Example:
//
//	req := PackageRequest{Name: "Sodium", Filename: "sodium-fabric-0.5.3.jar"}
//	req.FilenameStem() // "fabric-0.5.3"
func (p PackageRequest) FilenameStem() string {
	if p.Filename == "" {
		return ""
	}

	stem := strings.TrimSuffix(p.Filename, filepath.Ext(p.Filename))
	if p.Name != "" {
		stem = removeFold(stem, p.Name)
		// Names with spaces usually appear hyphenated in filenames.
		stem = removeFold(stem, strings.ReplaceAll(p.Name, " ", "-"))
	}

	return strings.Trim(stem, separatorChars)
}

// separatorChars are stripped from both ends of a filename stem.
const separatorChars = " -_+."

// removeFold removes every case-insensitive occurrence of sub from s.
func removeFold(s, sub string) string {
	if sub == "" {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		if i+len(sub) <= len(s) && strings.EqualFold(s[i:i+len(sub)], sub) {
			i += len(sub)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
