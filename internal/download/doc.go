// Package download provides the orchestration logic for resolving and
// fetching every package of a modlist.
//
// # Manager
//
// The Manager coordinates the whole batch. For each package, on one of a
// bounded number of workers:
//
//  1. Pick the registry backend from the package URL
//  2. List the published versions
//  3. Resolve the version and the file variant
//  4. Fetch the file into the output directory (skipped if present)
//
// # Basic Usage
//
//	client := http.NewClient()
//	manager := download.NewManager(
//	    registry.NewSet(client, registry.DefaultEndpoints()),
//	    download.NewFetcher(client),
//	    download.Options{OutputDir: "mods", Concurrency: 8, LoaderTag: "fabric"},
//	    observer,
//	)
//
//	if err := manager.Initialize(ctx, requests); err != nil {
//	    log.Fatal(err) // nothing was downloaded
//	}
//
//	summary, err := manager.StartDownloads(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary)
//
// # Progress Tracking
//
// Events reach the Observer from a single goroutine: one OnOutcome and
// OnProgress pair per package, OnItemBytes while files stream, and a final
// OnBatchComplete. Byte-progress events are dropped if the observer falls
// behind; outcomes never are. GetProgress returns a snapshot at any time.
//
// # Errors
//
// Per-package errors never abort the batch. They become NotFound or Failed
// outcomes; only pre-flight errors are returned by Initialize. There is no
// retry logic.
package download
