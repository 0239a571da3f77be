// Package ioutils provides file system utilities for modfetch.
//
// This package contains functions for:
//   - Output directory creation
//   - Existence checks used by the skip-if-present rule
//   - Crash-safe file writes through a temporary file and rename
//
// # File Operations
//
//	// Create the output directory (its parent must exist)
//	err := ioutils.EnsureDir("mods")
//
//	// Check whether a download target is already present
//	ok, err := ioutils.Exists("mods/sodium-fabric-0.5.3.jar")
//
// # Atomic Writes
//
// CreateAtomic writes into a hidden sibling file and only renames it over
// the destination on Commit, so an interrupted download never leaves a
// truncated file under the final name:
//
//	f, err := ioutils.CreateAtomic("mods/sodium-fabric-0.5.3.jar")
//	if err != nil {
//	    return err
//	}
//	defer f.Abort() // no-op after a successful Commit
//	if _, err := io.Copy(f, body); err != nil {
//	    return err
//	}
//	return f.Commit()
package ioutils
