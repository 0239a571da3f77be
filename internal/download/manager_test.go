package download

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/model"
	"github.com/handiism/modfetch/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModrinth serves /v2/project/{id}/version and /files/{name}.
type fakeModrinth struct {
	*httptest.Server

	delay     time.Duration
	downloads atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func newFakeModrinth(t *testing.T) *fakeModrinth {
	t.Helper()
	f := &fakeModrinth{}
	f.Server = httptest.NewServer(nethttp.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeModrinth) handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxFlight.Load()
		if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/v2/project/"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v2/project/"), "/version")
		switch {
		case strings.HasPrefix(id, "missing"):
			nethttp.NotFound(w, r)
		case strings.HasPrefix(id, "old"):
			fmt.Fprint(w, `[{"version_number": "0.1.0", "files": [{"filename": "old.jar", "url": "x"}]}]`)
		case id == "pinned":
			fmt.Fprintf(w, `[
				{"version_number": "1.2.0", "files": [{"filename": "pinned-1.2.0.jar", "url": "%[1]s/files/pinned-1.2.0.jar"}]},
				{"version_number": "1.0", "files": [{"filename": "pinned-1.0.jar", "url": "%[1]s/files/pinned-1.0.jar"}]}
			]`, f.URL)
		case id == "evil":
			fmt.Fprintf(w, `[{"version_number": "1.0", "files": [{"filename": "../evil.jar", "url": "%s/files/evil.jar"}]}]`, f.URL)
		case id == "nested":
			fmt.Fprintf(w, `[{"version_number": "1.0", "files": [{"filename": "a/b.jar", "url": "%s/files/b.jar"}]}]`, f.URL)
		default:
			fmt.Fprintf(w, `[
				{"version_number": "2.0.0", "files": [{"filename": "%[1]s-2.0.0.jar", "url": "%[2]s/files/%[1]s-2.0.0.jar"}]},
				{"version_number": "1.0.0", "files": [
					{"filename": "%[1]s-forge-1.0.0.jar", "url": "%[2]s/files/%[1]s-forge-1.0.0.jar"},
					{"filename": "%[1]s-fabric-1.0.0.jar", "url": "%[2]s/files/%[1]s-fabric-1.0.0.jar"}
				]}
			]`, id, f.URL)
		}
	case strings.HasPrefix(r.URL.Path, "/files/"):
		f.downloads.Add(1)
		fmt.Fprint(w, "jar:"+strings.TrimPrefix(r.URL.Path, "/files/"))
	default:
		nethttp.NotFound(w, r)
	}
}

type recordingObserver struct {
	NopObserver

	outcomes  []model.Outcome
	progress  []int
	failed    []string
	completed int
}

func (o *recordingObserver) OnOutcome(outcome model.Outcome) { o.outcomes = append(o.outcomes, outcome) }
func (o *recordingObserver) OnProgress(completed, _ int)     { o.progress = append(o.progress, completed) }
func (o *recordingObserver) OnBatchComplete(failed []string) {
	o.failed = failed
	o.completed++
}

func newTestManager(t *testing.T, server *fakeModrinth, dir string, concurrency int, obs Observer) *Manager {
	t.Helper()
	client := http.NewClient()
	set := registry.Set{registry.Modrinth: registry.NewModrinth(client, server.URL)}
	return NewManager(set, NewFetcher(client), Options{
		OutputDir:   dir,
		Concurrency: concurrency,
		LoaderTag:   "fabric",
	}, obs)
}

func requests(n int, version string) []model.PackageRequest {
	out := make([]model.PackageRequest, n)
	for i := range out {
		id := fmt.Sprintf("mod%02d", i)
		out[i] = model.PackageRequest{URL: "https://modrinth.com/mod/" + id, Version: version, Name: id}
	}
	return out
}

func run(t *testing.T, m *Manager, reqs []model.PackageRequest) *Summary {
	t.Helper()
	require.NoError(t, m.Initialize(context.Background(), reqs))
	summary, err := m.StartDownloads(context.Background())
	require.NoError(t, err)
	return summary
}

func TestManager_OneOutcomePerPackage(t *testing.T) {
	server := newFakeModrinth(t)
	dir := filepath.Join(t.TempDir(), "mods")

	reqs := requests(5, "1.0.0")
	reqs = append(reqs,
		model.PackageRequest{URL: "missing-one", Version: "1.0.0", Name: "Missing"},
		model.PackageRequest{URL: "old-one", Version: "9.9", Name: "Old"},
		model.PackageRequest{URL: "https://example.com/x", Version: "1.0", Name: "Elsewhere"},
	)

	obs := &recordingObserver{}
	m := newTestManager(t, server, dir, 3, obs)
	summary := run(t, m, reqs)

	require.Len(t, summary.Outcomes, len(reqs))
	var names, want []string
	for _, o := range summary.Outcomes {
		names = append(names, o.Package)
	}
	for _, r := range reqs {
		want = append(want, r.Name)
	}
	sort.Strings(names)
	sort.Strings(want)
	assert.Equal(t, want, names)

	assert.Equal(t, 5, summary.Count(model.OutcomeDownloaded))
	assert.Equal(t, 1, summary.Count(model.OutcomeNotFound))
	assert.Equal(t, 2, summary.Count(model.OutcomeFailed))
	assert.Equal(t, []string{"Missing", "Old", "Elsewhere"}, summary.Failed)
	assert.Equal(t, "3 failed: Missing, Old, Elsewhere", summary.String())

	assert.Len(t, obs.outcomes, len(reqs))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, obs.progress)
	assert.Equal(t, summary.Failed, obs.failed)
	assert.Equal(t, 1, obs.completed)
	assert.Equal(t, StateCompleted, m.State())
	progress := m.GetProgress()
	assert.Equal(t, 8, progress.Completed)
	assert.Equal(t, 8, progress.Total)

	data, err := os.ReadFile(filepath.Join(dir, "mod00-fabric-1.0.0.jar"))
	require.NoError(t, err)
	assert.Equal(t, "jar:mod00-fabric-1.0.0.jar", string(data))
}

func TestManager_SecondRunSkipsEverything(t *testing.T) {
	server := newFakeModrinth(t)
	dir := filepath.Join(t.TempDir(), "mods")
	reqs := requests(4, "2.0.0")

	first := run(t, newTestManager(t, server, dir, 2, nil), reqs)
	assert.Equal(t, 4, first.Count(model.OutcomeDownloaded))
	assert.Equal(t, int32(4), server.downloads.Load())

	second := run(t, newTestManager(t, server, dir, 2, nil), reqs)
	assert.Equal(t, 4, second.Count(model.OutcomeSkipped))
	assert.Empty(t, second.Failed)
	assert.Equal(t, "All 4 packages succeeded", second.String())
	assert.Equal(t, int32(4), server.downloads.Load(), "no file may be downloaded again")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "no temporary files may be left behind")
}

func TestManager_ConcurrencyBound(t *testing.T) {
	server := newFakeModrinth(t)
	server.delay = 5 * time.Millisecond
	dir := filepath.Join(t.TempDir(), "mods")

	summary := run(t, newTestManager(t, server, dir, 8, nil), requests(50, "1.0.0"))

	assert.Len(t, summary.Outcomes, 50)
	assert.Empty(t, summary.Failed)
	assert.LessOrEqual(t, server.maxFlight.Load(), int32(8))
	assert.Greater(t, server.maxFlight.Load(), int32(1), "packages should run in parallel")
}

func TestManager_Cancelled(t *testing.T) {
	server := newFakeModrinth(t)
	dir := filepath.Join(t.TempDir(), "mods")
	reqs := requests(10, "1.0.0")

	m := newTestManager(t, server, dir, 2, nil)
	require.NoError(t, m.Initialize(context.Background(), reqs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := m.StartDownloads(ctx)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 10)
	for _, o := range summary.Outcomes {
		assert.Equal(t, model.OutcomeFailed, o.Kind)
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
	assert.Len(t, summary.Failed, 10)
}

func TestManager_Preflight(t *testing.T) {
	server := newFakeModrinth(t)

	t.Run("missing parent", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing", "mods")
		m := newTestManager(t, server, dir, 2, nil)
		assert.Error(t, m.Initialize(context.Background(), requests(1, "1.0.0")))
		assert.Equal(t, StateIdle, m.State())
	})

	t.Run("zero concurrency", func(t *testing.T) {
		m := newTestManager(t, server, t.TempDir(), 0, nil)
		err := m.Initialize(context.Background(), requests(1, "1.0.0"))
		assert.True(t, errors.Is(err, ErrInvalidConcurrency), "got %v", err)
	})

	t.Run("start before initialize", func(t *testing.T) {
		m := newTestManager(t, server, t.TempDir(), 2, nil)
		_, err := m.StartDownloads(context.Background())
		assert.True(t, errors.Is(err, ErrNotInitialized))
	})

	t.Run("runs once", func(t *testing.T) {
		m := newTestManager(t, server, t.TempDir(), 2, nil)
		run(t, m, nil)
		_, err := m.StartDownloads(context.Background())
		assert.True(t, errors.Is(err, ErrNotIdle))
		assert.True(t, errors.Is(m.Initialize(context.Background(), nil), ErrNotIdle))
	})
}

func TestManager_EmptyBatch(t *testing.T) {
	server := newFakeModrinth(t)
	obs := &recordingObserver{}
	summary := run(t, newTestManager(t, server, t.TempDir(), 4, obs), nil)

	assert.Empty(t, summary.Outcomes)
	assert.Equal(t, "All 0 packages succeeded", summary.String())
	assert.Equal(t, 1, obs.completed)
}

// bytesObserver blocks on every byte event to force drops.
type bytesObserver struct {
	NopObserver

	mu       sync.Mutex
	outcomes int
	bytes    int
}

func (o *bytesObserver) OnOutcome(model.Outcome) {
	o.mu.Lock()
	o.outcomes++
	o.mu.Unlock()
}

func (o *bytesObserver) OnItemBytes(string, int64, int64) {
	time.Sleep(time.Millisecond)
	o.mu.Lock()
	o.bytes++
	o.mu.Unlock()
}

func TestManager_SlowObserverNeverLosesOutcomes(t *testing.T) {
	server := newFakeModrinth(t)
	obs := &bytesObserver{}
	summary := run(t, newTestManager(t, server, t.TempDir(), 8, obs), requests(20, "1.0.0"))

	assert.Len(t, summary.Outcomes, 20)
	assert.Equal(t, 20, obs.outcomes)
}

func TestManager_ModrinthIgnoresExpectedFilename(t *testing.T) {
	server := newFakeModrinth(t)
	dir := filepath.Join(t.TempDir(), "mods")
	reqs := []model.PackageRequest{
		{URL: "https://modrinth.com/mod/pinned", Version: "1.0", Filename: "pinned-1.2.jar", Name: "pinned"},
	}

	summary := run(t, newTestManager(t, server, dir, 1, nil), reqs)

	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, model.OutcomeDownloaded, summary.Outcomes[0].Kind)
	assert.Equal(t, "pinned-1.0.jar", summary.Outcomes[0].Filename)
	_, err := os.Stat(filepath.Join(dir, "pinned-1.2.0.jar"))
	assert.True(t, os.IsNotExist(err), "the newer version must not be fetched")
}

func TestManager_RefusesUnsafeFilenames(t *testing.T) {
	server := newFakeModrinth(t)
	root := t.TempDir()
	dir := filepath.Join(root, "mods")
	reqs := []model.PackageRequest{
		{URL: "https://modrinth.com/mod/evil", Version: "1.0", Name: "Evil"},
		{URL: "https://modrinth.com/mod/nested", Version: "1.0", Name: "Nested"},
	}

	summary := run(t, newTestManager(t, server, dir, 2, nil), reqs)

	require.Len(t, summary.Outcomes, 2)
	for _, o := range summary.Outcomes {
		assert.Equal(t, model.OutcomeFailed, o.Kind)
		assert.True(t, errors.Is(o.Err, ErrUnsafeFilename), "got %v", o.Err)
	}
	assert.Equal(t, []string{"Evil", "Nested"}, summary.Failed)
	assert.Equal(t, int32(0), server.downloads.Load())

	rootEntries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, rootEntries, 1)
	assert.Equal(t, "mods", rootEntries[0].Name())

	modEntries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, modEntries)
}

func TestManager_DuplicateDestination(t *testing.T) {
	server := newFakeModrinth(t)
	dir := filepath.Join(t.TempDir(), "mods")
	reqs := []model.PackageRequest{
		{URL: "https://modrinth.com/mod/mod00", Version: "1.0.0", Name: "First"},
		{URL: "https://modrinth.com/project/mod00", Version: "1.0.0", Name: "Second"},
	}

	// One worker processes the packages in modlist order.
	summary := run(t, newTestManager(t, server, dir, 1, nil), reqs)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, model.OutcomeDownloaded, summary.Outcomes[0].Kind)
	assert.Equal(t, "First", summary.Outcomes[0].Package)

	second := summary.Outcomes[1]
	assert.Equal(t, model.OutcomeFailed, second.Kind)
	assert.True(t, errors.Is(second.Err, ErrDuplicateFile), "got %v", second.Err)
	assert.Contains(t, second.Err.Error(), `"First"`)

	assert.Equal(t, []string{"Second"}, summary.Failed)
	assert.Equal(t, int32(1), server.downloads.Load())
}
