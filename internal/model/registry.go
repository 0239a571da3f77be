package model

// RegistryEntry is one published version of a project.
//
// Entries are fetched fresh for every package and discarded once a file
// has been selected; they are never cached across packages.
type RegistryEntry struct {
	// VersionNumber is the version string as published by the registry.
	VersionNumber string

	// Files lists the downloadable variants of this version in registry order.
	// A registry may return an entry with no files; callers treat that as
	// "not found".
	Files []FileVariant
}

// FileVariant is a single downloadable file of a RegistryEntry.
type FileVariant struct {
	// ID is the registry-specific file identifier, if the registry has one.
	ID int64

	// Filename is the name reported by the registry. It is used verbatim
	// as the local file name.
	Filename string

	// URL is the download link. Some registries leave it empty and derive
	// the link in a second step.
	URL string

	// Size is the file size in bytes, or 0 when unknown.
	Size int64
}
