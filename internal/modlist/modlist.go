// Package modlist reads the JSON modlist that drives a batch.
//
// A modlist is an array of objects:
//
//	[
//	  {"url": "https://modrinth.com/mod/sodium", "version": "0.5.3", "name": "Sodium"},
//	  {"url": "https://www.curseforge.com/minecraft/mc-mods/jei", "version": "15.2.0.27",
//	   "filename": "jei-1.20.1-fabric-15.2.0.27.jar", "name": "JEI"}
//	]
//
// url, version and name are required; filename is optional and only takes
// part in CurseForge version matching. version may be empty only when
// filename is set, since an empty version alone would match nothing.
package modlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/handiism/modfetch/internal/model"
)

// ErrInvalid is returned for a modlist that parses but breaks the format.
var ErrInvalid = errors.New("invalid modlist")

// entry mirrors one modlist object; pointers tell absent from empty.
type entry struct {
	URL      *string `json:"url"`
	Version  *string `json:"version"`
	Filename *string `json:"filename"`
	Name     *string `json:"name"`
}

// Load reads and validates the modlist at path.
func Load(path string) ([]model.PackageRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read modlist: %w", err)
	}
	reqs, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Parse decodes and validates a modlist.
//
// Errors name the zero-based index of the offending entry and the field.
func Parse(r io.Reader) ([]model.PackageRequest, error) {
	var entries []*entry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the JSON array", ErrInvalid)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalid)
	}

	reqs := make([]model.PackageRequest, 0, len(entries))
	for i, e := range entries {
		req, err := e.toRequest()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalid, i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (e *entry) toRequest() (model.PackageRequest, error) {
	if e == nil {
		return model.PackageRequest{}, errors.New("entry is null")
	}
	if e.URL == nil || strings.TrimSpace(*e.URL) == "" {
		return model.PackageRequest{}, errors.New(`missing field "url"`)
	}
	if e.Name == nil || strings.TrimSpace(*e.Name) == "" {
		return model.PackageRequest{}, errors.New(`missing field "name"`)
	}
	if e.Version == nil {
		return model.PackageRequest{}, errors.New(`missing field "version"`)
	}

	req := model.PackageRequest{
		URL:     strings.TrimSpace(*e.URL),
		Version: strings.TrimSpace(*e.Version),
		Name:    strings.TrimSpace(*e.Name),
	}
	if e.Filename != nil {
		req.Filename = strings.TrimSpace(*e.Filename)
	}
	if req.Version == "" && req.Filename == "" {
		return model.PackageRequest{}, errors.New(`field "version" is empty and no "filename" is set`)
	}
	return req, nil
}
