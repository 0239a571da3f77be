package dto

import (
	"time"

	"github.com/handiism/modfetch/internal/model"
)

// ModrinthVersion represents one element of the Modrinth
// GET /v2/project/{id}/version response.
type ModrinthVersion struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Name          string         `json:"name"`
	VersionNumber string         `json:"version_number"`
	VersionType   string         `json:"version_type"`
	Loaders       []string       `json:"loaders"`
	GameVersions  []string       `json:"game_versions"`
	DatePublished time.Time      `json:"date_published"`
	Files         []ModrinthFile `json:"files"`
}

// ModrinthFile represents a downloadable file of a Modrinth version.
type ModrinthFile struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
	Hashes   map[string]string `json:"hashes"`
}

// ToEntry converts ModrinthVersion to a model.RegistryEntry, keeping the
// file order reported by the API.
func (v *ModrinthVersion) ToEntry() model.RegistryEntry {
	entry := model.RegistryEntry{
		VersionNumber: v.VersionNumber,
		Files:         make([]model.FileVariant, 0, len(v.Files)),
	}
	for _, f := range v.Files {
		entry.Files = append(entry.Files, model.FileVariant{
			Filename: f.Filename,
			URL:      f.URL,
			Size:     f.Size,
		})
	}
	return entry
}
