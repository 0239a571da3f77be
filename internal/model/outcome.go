package model

import "fmt"

// OutcomeKind tells which variant an Outcome holds.
type OutcomeKind int

const (
	// OutcomeDownloaded means the file was fetched and written to disk.
	OutcomeDownloaded OutcomeKind = iota

	// OutcomeSkipped means the target file already existed locally.
	OutcomeSkipped

	// OutcomeNotFound means no published version or file matched the request.
	OutcomeNotFound

	// OutcomeFailed means a network, registry or filesystem error occurred.
	OutcomeFailed
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDownloaded:
		return "Downloaded"
	case OutcomeSkipped:
		return "Skipped"
	case OutcomeNotFound:
		return "NotFound"
	case OutcomeFailed:
		return "Failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// IsSuccess returns true for outcomes that leave the file present on disk.
func (k OutcomeKind) IsSuccess() bool {
	return k == OutcomeDownloaded || k == OutcomeSkipped
}

// SkipReasonExists is the reason attached to Skipped outcomes.
const SkipReasonExists = "already exists"

// Outcome is the result of processing one PackageRequest.
//
// Only the fields relevant to Kind are set:
//   - Downloaded: Package, Filename, Bytes
//   - Skipped: Package, Filename, Reason
//   - NotFound: Package, Version, Err (the resolver's reason)
//   - Failed: Package, Err
type Outcome struct {
	Kind     OutcomeKind
	Package  string
	Version  string
	Filename string
	Bytes    int64
	Reason   string
	Err      error
}

// Downloaded creates an Outcome for a file written to disk.
func Downloaded(pkg, filename string, bytes int64) Outcome {
	return Outcome{Kind: OutcomeDownloaded, Package: pkg, Filename: filename, Bytes: bytes}
}

// Skipped creates an Outcome for a file that was already present.
func Skipped(pkg, filename string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Package: pkg, Filename: filename, Reason: SkipReasonExists}
}

// NotFound creates an Outcome for a request no published version matched.
func NotFound(pkg, version string, reason error) Outcome {
	return Outcome{Kind: OutcomeNotFound, Package: pkg, Version: version, Err: reason}
}

// Failed creates an Outcome for a request that errored.
func Failed(pkg string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Package: pkg, Err: err}
}

// WithPackage returns a copy of o attributed to pkg.
func (o Outcome) WithPackage(pkg string) Outcome {
	o.Package = pkg
	return o
}

// String renders the outcome as a single log line.
//
// Example:
//
//	Downloaded("Sodium", "sodium-fabric-0.5.3.jar", 1048576).String()
//	// "Downloaded sodium-fabric-0.5.3.jar (1.0 MB)"
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeDownloaded:
		return fmt.Sprintf("Downloaded %s (%s)", o.Filename, FormatBytes(o.Bytes))
	case OutcomeSkipped:
		return fmt.Sprintf("%s %s, skipped", o.Filename, o.Reason)
	case OutcomeNotFound:
		return fmt.Sprintf("%s: version %q not found", o.Package, o.Version)
	case OutcomeFailed:
		return fmt.Sprintf("%s: %v", o.Package, o.Err)
	default:
		return fmt.Sprintf("%s: unknown outcome", o.Package)
	}
}

// FormatBytes renders a byte count using binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
