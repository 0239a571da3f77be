package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	ioutils "github.com/handiism/modfetch/internal/io"
	"github.com/handiism/modfetch/internal/logging"
	"github.com/handiism/modfetch/internal/model"
	"github.com/handiism/modfetch/internal/registry"
	"github.com/handiism/modfetch/internal/resolve"
	"golang.org/x/sync/errgroup"
)

// Errors returned by Manager.
var (
	// ErrInvalidConcurrency means the worker limit is below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrNotIdle means Initialize or StartDownloads was called on a
	// Manager that already ran.
	ErrNotIdle = errors.New("manager is not idle")

	// ErrNotInitialized means StartDownloads was called before Initialize.
	ErrNotInitialized = errors.New("manager is not initialized")

	// ErrUnsafeFilename means a registry file name would leave the output
	// directory.
	ErrUnsafeFilename = errors.New("unsafe file name")

	// ErrDuplicateFile means two packages of one batch resolved to the
	// same file.
	ErrDuplicateFile = errors.New("file already claimed by another package")
)

// State is the lifecycle stage of a Manager.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures a batch.
type Options struct {
	// OutputDir receives the downloaded files. Its parent must exist.
	OutputDir string

	// Concurrency is the number of packages processed at once.
	Concurrency int

	// LoaderTag is the preferred loader, e.g. "fabric".
	LoaderTag string
}

// Progress is a snapshot of a running batch.
type Progress struct {
	Completed int
	Total     int

	// Item fields describe the most recent byte-progress report.
	ItemName       string
	ItemDownloaded int64
	ItemTotal      int64
}

// Summary is the result of a finished batch.
type Summary struct {
	// Outcomes holds one outcome per package, in completion order.
	Outcomes []model.Outcome

	// Failed lists the packages that were not downloaded or skipped,
	// in modlist order.
	Failed []string
}

// String renders the trailing summary line.
func (s *Summary) String() string {
	if len(s.Failed) == 0 {
		return fmt.Sprintf("All %d packages succeeded", len(s.Outcomes))
	}
	return fmt.Sprintf("%d failed: %s", len(s.Failed), strings.Join(s.Failed, ", "))
}

// Count returns how many outcomes have the given kind.
func (s *Summary) Count(kind model.OutcomeKind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Manager coordinates a batch of package downloads.
//
// Each package runs its own pipeline (look up registry, list versions,
// resolve version and file, fetch) on one of Concurrency workers. Workers
// share nothing but the completion counter and the event channel drained by
// a single consumer goroutine, which forwards events to the Observer.
type Manager struct {
	registries registry.Set
	fetcher    *Fetcher
	opts       Options
	observer   Observer

	requests    []model.PackageRequest
	initialized bool

	state     atomic.Int32
	completed atomic.Int32

	mu   sync.RWMutex
	item struct {
		name              string
		downloaded, total int64
	}
	// claimed maps destination paths to the package writing them.
	claimed map[string]string
}

// NewManager creates a new download Manager. A nil observer ignores events.
func NewManager(registries registry.Set, fetcher *Fetcher, opts Options, observer Observer) *Manager {
	if observer == nil {
		observer = NopObserver{}
	}
	if opts.LoaderTag == "" {
		opts.LoaderTag = resolve.DefaultLoaderTag
	}
	return &Manager{
		registries: registries,
		fetcher:    fetcher,
		opts:       opts,
		observer:   observer,
	}
}

// Initialize performs the pre-flight checks and stores the batch.
//
// It creates the output directory (but not its parents) and rejects a
// concurrency below 1. Any error returned here means no package was
// processed.
func (m *Manager) Initialize(ctx context.Context, requests []model.PackageRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.State() != StateIdle {
		return ErrNotIdle
	}
	if m.opts.Concurrency < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidConcurrency, m.opts.Concurrency)
	}
	if err := ioutils.EnsureDir(m.opts.OutputDir); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}

	m.requests = append([]model.PackageRequest(nil), requests...)
	m.claimed = make(map[string]string, len(requests))
	m.initialized = true

	logger := logging.GetLogger("download")
	logger.Info().
		Int("packages", len(m.requests)).
		Str("output", m.opts.OutputDir).
		Int("concurrency", m.opts.Concurrency).
		Msg("Batch initialized")
	return nil
}

// StartDownloads processes every initialized package and blocks until all
// of them have an outcome. It can run only once per Manager.
//
// Cancelling ctx stops in-flight transfers between chunks; packages that
// had not finished get a Failed outcome carrying the context error, so the
// Summary always holds one outcome per package.
func (m *Manager) StartDownloads(ctx context.Context) (*Summary, error) {
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrNotIdle
	}

	logger := logging.GetLogger("download")
	done := logging.LogOperationStart(logger, "batch")
	defer done()

	events := make(chan event, m.opts.Concurrency*4)
	summary := &Summary{Outcomes: make([]model.Outcome, 0, len(m.requests))}

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		m.consume(events, summary)
	}()

	var g errgroup.Group
	g.SetLimit(m.opts.Concurrency)

	for i, req := range m.requests {
		i, req := i, req
		g.Go(func() error {
			outcome := m.process(ctx, req, events)
			m.completed.Add(1)
			events <- event{kind: eventOutcome, index: i, outcome: outcome}
			return nil
		})
	}

	_ = g.Wait()
	close(events)
	<-consumed

	m.state.Store(int32(StateCompleted))
	logger.Info().
		Int("downloaded", summary.Count(model.OutcomeDownloaded)).
		Int("skipped", summary.Count(model.OutcomeSkipped)).
		Int("failed", len(summary.Failed)).
		Msg("Batch completed")
	return summary, nil
}

// State returns the lifecycle stage.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Progress{
		Completed:      int(m.completed.Load()),
		Total:          len(m.requests),
		ItemName:       m.item.name,
		ItemDownloaded: m.item.downloaded,
		ItemTotal:      m.item.total,
	}
}

// consume forwards events to the observer until events is closed.
func (m *Manager) consume(events <-chan event, summary *Summary) {
	total := len(m.requests)
	failed := make([]bool, total)

	for ev := range events {
		switch ev.kind {
		case eventBytes:
			m.observer.OnItemBytes(ev.name, ev.downloaded, ev.total)
		case eventOutcome:
			summary.Outcomes = append(summary.Outcomes, ev.outcome)
			failed[ev.index] = !ev.outcome.Kind.IsSuccess()
			m.observer.OnOutcome(ev.outcome)
			m.observer.OnProgress(len(summary.Outcomes), total)
		}
	}

	for i, f := range failed {
		if f {
			summary.Failed = append(summary.Failed, m.requests[i].Name)
		}
	}
	m.observer.OnBatchComplete(summary.Failed)
}

// process runs the pipeline of one package and converts every error into
// an outcome.
func (m *Manager) process(ctx context.Context, req model.PackageRequest, events chan<- event) model.Outcome {
	logger := logging.GetLogger("download").With().
		Str("package", req.Name).
		Str("version", req.Version).
		Str("url", req.URL).
		Logger()

	if err := ctx.Err(); err != nil {
		return model.Failed(req.Name, err)
	}

	reg, projectID, err := m.registries.Lookup(req.URL)
	if err != nil {
		return model.Failed(req.Name, err)
	}

	entries, err := reg.ListVersions(ctx, projectID)
	if err != nil {
		return model.Failed(req.Name, err)
	}

	withFilename := reg.Kind().MatchesFilename()
	entry, variant, err := resolve.Resolve(req, entries, m.opts.LoaderTag, withFilename)
	if err != nil {
		if errors.Is(err, resolve.ErrVersionNotFound) || errors.Is(err, resolve.ErrNoVariant) {
			logger.Debug().Err(err).Strs("candidates", resolve.Candidates(req, m.opts.LoaderTag, withFilename)).Msg("No match")
			return model.NotFound(req.Name, req.Version, err)
		}
		return model.Failed(req.Name, err)
	}
	logger.Debug().Str("matched", entry.VersionNumber).Str("file", variant.Filename).Msg("Resolved")

	filename := filepath.Base(variant.Filename)
	if filename == "." || filename == ".." || filename == string(filepath.Separator) || filename != variant.Filename {
		return model.Failed(req.Name, fmt.Errorf("%w: %q", ErrUnsafeFilename, variant.Filename))
	}

	dest := filepath.Join(m.opts.OutputDir, filename)
	if owner, ok := m.claim(dest, req.Name); !ok {
		return model.Failed(req.Name, fmt.Errorf("%w: %s is written by %q", ErrDuplicateFile, filename, owner))
	}

	url, err := reg.DownloadURL(ctx, variant)
	if err != nil {
		return model.Failed(req.Name, err)
	}

	outcome := m.fetcher.Fetch(ctx, url, dest, func(downloaded, total int64) {
		m.itemBytes(req.Name, downloaded, total, events)
	})
	return outcome.WithPackage(req.Name)
}

// claim reserves dest for pkg. It returns the earlier owner and false when
// another package of the batch already took it.
func (m *Manager) claim(dest, pkg string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.claimed[dest]; ok {
		return owner, false
	}
	m.claimed[dest] = pkg
	return pkg, true
}

// itemBytes records byte progress and offers it to the consumer without
// blocking.
func (m *Manager) itemBytes(name string, downloaded, total int64, events chan<- event) {
	m.mu.Lock()
	m.item.name, m.item.downloaded, m.item.total = name, downloaded, total
	m.mu.Unlock()

	select {
	case events <- event{kind: eventBytes, name: name, downloaded: downloaded, total: total}:
	default:
	}
}
