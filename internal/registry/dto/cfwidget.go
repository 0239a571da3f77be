package dto

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/modfetch/internal/model"
)

// WidgetProject represents the CurseForge widget API response
// (GET https://api.cfwidget.com/{id}).
type WidgetProject struct {
	ID    int64        `json:"id"`
	Title string       `json:"title"`
	Type  string       `json:"type"`
	Files []WidgetFile `json:"files"`
}

// WidgetFile represents one file listed by the widget API.
//
// The widget API does not return a download link; it has to be derived
// from ID and Name.
type WidgetFile struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Display    string    `json:"display"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Version    string    `json:"version"`
	FileSize   int64     `json:"filesize"`
	Versions   []string  `json:"versions"`
	Downloads  int64     `json:"downloads"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ToEntry converts WidgetFile to a model.RegistryEntry.
//
// The widget API has no separate version objects, so every file is its own
// entry. The version number is the file name without extension, which is
// what both the requested version and the expected filename are matched
// against.
func (f *WidgetFile) ToEntry() model.RegistryEntry {
	return model.RegistryEntry{
		VersionNumber: strings.TrimSuffix(f.Name, filepath.Ext(f.Name)),
		Files: []model.FileVariant{{
			ID:       f.ID,
			Filename: f.Name,
			Size:     f.FileSize,
		}},
	}
}
