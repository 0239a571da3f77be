// Package model defines the core data structures used throughout
// the modfetch application.
//
// # PackageRequest
//
// PackageRequest is one entry of a modlist, describing what to fetch:
//
//	req := model.PackageRequest{
//	    URL:     "https://modrinth.com/mod/sodium",
//	    Version: "0.5.3",
//	    Name:    "Sodium",
//	}
//
// # RegistryEntry and FileVariant
//
// A RegistryEntry is one published version of a project as reported by a
// registry. It owns an ordered list of FileVariant values, the downloadable
// files of that version:
//
//	entry := model.RegistryEntry{
//	    VersionNumber: "mc1.20.1-0.5.3",
//	    Files: []model.FileVariant{
//	        {Filename: "sodium-fabric-0.5.3.jar", URL: "https://cdn.modrinth.com/..."},
//	    },
//	}
//
// # Outcome
//
// Every PackageRequest produces exactly one Outcome:
//
//	model.Downloaded("Sodium", "sodium-fabric-0.5.3.jar", 1048576)
//	model.Skipped("Sodium", "sodium-fabric-0.5.3.jar")
//	model.NotFound("Sodium", "0.5.3", err)
//	model.Failed("Sodium", err)
//
// Outcome.String renders the single log line shown to the user.
package model
