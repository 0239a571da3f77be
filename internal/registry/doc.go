// Package registry talks to the remote package registries modfetch can
// download from.
//
// Every backend implements Registry, which lists the published versions of
// a project and turns a selected file into a download link:
//
//	set := registry.NewSet(client, registry.DefaultEndpoints())
//	reg, projectID, err := set.Lookup("https://modrinth.com/mod/sodium")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entries, err := reg.ListVersions(ctx, projectID)
//
// # Backends
//
// Modrinth publishes version objects, each with one or more files. The
// CurseForge widget API publishes a flat list of files; each file becomes a
// version of its own, and the download link is derived from the file id and
// name in a second step (DownloadURL).
//
// # Errors
//
// Backends perform no retries. Failures are classified with the sentinel
// errors re-exported from internal/http (ErrNetwork, ErrNotFound,
// ErrUnexpectedStatus, ErrMalformedResponse); use errors.Is.
package registry
