package pluginsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"owlsync/internal/adapters/filesystem"
	"owlsync/internal/adapters/memory"
	"owlsync/internal/application"
	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// stubProbe serves canned files and symlinks per directory
type stubProbe struct {
	files    map[string][]domain.PluginFile
	symlinks map[string][]domain.Symlink
}

func (p *stubProbe) CollectPluginFiles(_ context.Context, dir string, format domain.PluginFormat) ([]domain.PluginFile, error) {
	var out []domain.PluginFile
	for _, f := range p.files[dir] {
		if f.Format == format {
			out = append(out, f)
		}
	}
	return out, nil
}

func (p *stubProbe) CollectSymlinks(_ context.Context, dir string) ([]domain.Symlink, error) {
	return p.symlinks[dir], nil
}

// stubHost answers native probes from a map of path to records
type stubHost struct {
	enabled   bool
	available bool
	records   map[string][]domain.NativePlugin
	failPaths map[string]error
	block     bool

	mu    sync.Mutex
	calls []string
}

func (h *stubHost) IsEnabled() bool       { return h.enabled }
func (h *stubHost) LoaderAvailable() bool { return h.available }

func (h *stubHost) LoadPlugin(ctx context.Context, path string) ([]domain.NativePlugin, error) {
	h.mu.Lock()
	h.calls = append(h.calls, path)
	h.mu.Unlock()

	if h.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := h.failPaths[path]; ok {
		return nil, err
	}
	return h.records[path], nil
}

type fixture struct {
	plugins    *memory.Plugins
	symlinks   *memory.Symlinks
	footprints *memory.Footprints
	probe      *stubProbe
	host       *stubHost
}

func newFixture() *fixture {
	return &fixture{
		plugins:    memory.NewPlugins(),
		symlinks:   memory.NewSymlinks(),
		footprints: memory.NewFootprints(),
		probe: &stubProbe{
			files:    map[string][]domain.PluginFile{},
			symlinks: map[string][]domain.Symlink{},
		},
		host: &stubHost{},
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Plugins:      f.plugins,
		Symlinks:     f.symlinks,
		Footprints:   f.footprints,
		PluginProbe:  f.probe,
		SymlinkProbe: f.probe,
		NativeHost:   f.host,
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	return NewOrchestrator(f.deps(), opts...)
}

func vst3Config(differential bool) domain.ScanConfig {
	return domain.ScanConfig{
		Differential: differential,
		Platform:     domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/a"},
		},
	}
}

func vst3(path string) domain.PluginFile {
	return domain.PluginFile{Path: path, Format: domain.FormatVST3, Bundle: true}
}

func pluginPaths(t *testing.T, repo ports.PluginRepository) []string {
	t.Helper()
	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	var paths []string
	for _, p := range all {
		paths = append(paths, p.Path)
	}
	slices.Sort(paths)
	return paths
}

func TestRun_FullSyncReplacesCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// stale rows from a previous run
	f.plugins.Save(ctx, &domain.Plugin{Path: "/old/Gone.vst3"})
	f.symlinks.SaveAll(ctx, []domain.Symlink{{Path: "/old/link"}})

	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/Synth.vst3"), vst3("/a/New.vst3")}
	f.probe.symlinks["/a"] = []domain.Symlink{{Path: "/a/link", TargetPath: "/opt/x"}}

	stats, err := f.orchestrator().Run(ctx, vst3Config(false), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := pluginPaths(t, f.plugins), []string{"/a/New.vst3", "/a/Synth.vst3"}; !slices.Equal(got, want) {
		t.Errorf("plugins = %v, want %v", got, want)
	}
	links, _ := f.symlinks.FindAll(ctx)
	if len(links) != 1 || links[0].Path != "/a/link" {
		t.Errorf("symlinks = %+v, want only /a/link", links)
	}
	if stats.PluginsCleared != 1 || stats.SymlinksCleared != 1 {
		t.Errorf("cleared = %d/%d, want 1/1", stats.PluginsCleared, stats.SymlinksCleared)
	}
	if stats.Phase != domain.PhaseDone {
		t.Errorf("Phase = %s, want done", stats.Phase)
	}
	if stats.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestRun_NativeDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/One.vst3"), vst3("/a/Two.vst3")}
	f.host.enabled = false
	f.host.available = true

	if _, err := f.orchestrator().Run(ctx, vst3Config(false), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	all, _ := f.plugins.FindAll(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(all))
	}
	for _, p := range all {
		if p.NativeCompatible {
			t.Errorf("%s: NativeCompatible should be false", p.Path)
		}
		if len(p.Components) != 0 {
			t.Errorf("%s: expected no components, got %d", p.Path, len(p.Components))
		}
		if !p.SyncComplete {
			t.Errorf("%s: SyncComplete should be true", p.Path)
		}
	}
	if len(f.host.calls) != 0 {
		t.Errorf("native host should not be called, got %v", f.host.calls)
	}
}

func TestRun_NativeComponents(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/Shell.vst3")}
	f.host.enabled = true
	f.host.available = true
	f.host.records = map[string][]domain.NativePlugin{
		"/a/Shell.vst3": {
			{Name: "Shell Synth", DescriptiveName: "Shell Synth X", Version: "2.0", Category: "Synth",
				ManufacturerName: "Acme", FileOrIdentifier: "acme.synth", UID: 11, IsInstrument: true},
			{Name: "Shell FX", DescriptiveName: "Shell FX", Version: "2.1", Category: "Fx",
				ManufacturerName: "Acme FX", FileOrIdentifier: "acme.fx", UID: 12},
		},
	}

	stats, err := f.orchestrator().Run(ctx, vst3Config(false), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	p, _ := f.plugins.FindByPath(ctx, "/a/Shell.vst3")
	if p == nil {
		t.Fatal("plugin not persisted")
	}
	if !p.NativeCompatible || !p.SyncComplete {
		t.Errorf("NativeCompatible=%v SyncComplete=%v, want both true", p.NativeCompatible, p.SyncComplete)
	}
	if len(p.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(p.Components))
	}
	if p.Components[0].Type != domain.PluginTypeInstrument || p.Components[1].Type != domain.PluginTypeEffect {
		t.Errorf("component types = %s, %s", p.Components[0].Type, p.Components[1].Type)
	}
	if p.ManufacturerName != "Acme" || p.Version != "2.0" || p.UID != "11" ||
		p.Identifier != "acme.synth" || p.Type != domain.PluginTypeInstrument {
		t.Errorf("plugin metadata should come from the first record: %+v", p)
	}
	if stats.NativeCompatible != 1 || stats.ComponentsCreated != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_SkipsNativeProbe(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		disabled  bool // footprint native discovery off
		file      domain.PluginFile
	}{
		{name: "loader unavailable", available: false, file: vst3("/a/One.vst3")},
		{name: "footprint disabled", available: true, disabled: true, file: vst3("/a/One.vst3")},
		{name: "plugin disabled", available: true, file: vst3("/a/One.vst3" + domain.DisabledSuffix)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			f.probe.files["/a"] = []domain.PluginFile{tt.file}
			f.host.enabled = true
			f.host.available = tt.available
			if tt.disabled {
				f.footprints.Create(ctx, &domain.PluginFootprint{Path: tt.file.Path})
			}

			if _, err := f.orchestrator().Run(ctx, vst3Config(false), nil); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(f.host.calls) != 0 {
				t.Errorf("native host called for %v", f.host.calls)
			}
			p, _ := f.plugins.FindByPath(ctx, tt.file.Path)
			if p == nil || !p.SyncComplete {
				t.Errorf("plugin should be persisted and complete: %+v", p)
			}
		})
	}
}

func TestRun_DifferentialIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/One.vst3"), vst3("/a/Two.vst3")}
	f.probe.symlinks["/a"] = []domain.Symlink{{Path: "/a/link"}}
	o := f.orchestrator()

	first, err := o.Run(ctx, vst3Config(true), nil)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.PluginsCollected != 2 || first.FootprintsCreated != 2 {
		t.Errorf("first run stats = %+v", first)
	}

	saves := f.plugins.Saves
	second, err := o.Run(ctx, vst3Config(true), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.PluginsCollected != 0 || second.SymlinksCollected != 0 ||
		second.PluginsRemoved != 0 || second.SymlinksRemoved != 0 {
		t.Errorf("second run should find nothing to do: %+v", second)
	}
	if second.FootprintsCreated != 0 || f.footprints.Creates != 2 {
		t.Errorf("footprints created again: stats=%d store=%d", second.FootprintsCreated, f.footprints.Creates)
	}
	if f.plugins.Saves != saves {
		t.Errorf("second run saved %d plugins", f.plugins.Saves-saves)
	}
}

func TestRun_DifferentialRemovesExactPaths(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.plugins.Save(ctx, &domain.Plugin{Path: "/a/Old.vst3"})
	f.plugins.Save(ctx, &domain.Plugin{Path: "/a/Old.vst3.bak"})
	f.plugins.Save(ctx, &domain.Plugin{Path: "/a/Synth.vst3"})
	f.symlinks.SaveAll(ctx, []domain.Symlink{{Path: "/a/gone"}})

	// a substring delete of /a/Old.vst3 would also drop Old.vst3.bak
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/Synth.vst3"), vst3("/a/Old.vst3.bak")}

	stats, err := f.orchestrator().Run(ctx, vst3Config(true), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := pluginPaths(t, f.plugins), []string{"/a/Old.vst3.bak", "/a/Synth.vst3"}; !slices.Equal(got, want) {
		t.Errorf("plugins = %v, want %v", got, want)
	}
	if stats.PluginsRemoved != 1 || stats.SymlinksRemoved != 1 {
		t.Errorf("removed = %d/%d, want 1/1", stats.PluginsRemoved, stats.SymlinksRemoved)
	}
}

func TestRun_FootprintSingleton(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	var files []domain.PluginFile
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		files = append(files, vst3("/a/"+name+".vst3"))
	}
	f.probe.files["/a"] = files
	o := f.orchestrator(WithConcurrency(4))

	for i := range 3 {
		if _, err := o.Run(ctx, vst3Config(false), nil); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if f.footprints.Creates != len(files) {
		t.Errorf("footprints created %d times, want %d", f.footprints.Creates, len(files))
	}
	all, _ := f.plugins.FindAll(ctx)
	for _, p := range all {
		if p.Footprint == nil || p.Footprint.Path != p.Path {
			t.Errorf("%s: footprint not attached: %+v", p.Path, p.Footprint)
		}
	}
}

func TestRun_FootprintSurvivesRescan(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/One.vst3")}
	f.host.enabled = true
	f.host.available = true
	o := f.orchestrator()

	if _, err := o.Run(ctx, vst3Config(false), nil); err != nil {
		t.Fatal(err)
	}
	fp, _ := f.footprints.FindByPath(ctx, "/a/One.vst3")
	fp.NativeDiscoveryEnabled = false
	if err := f.footprints.Update(ctx, fp); err != nil {
		t.Fatal(err)
	}
	f.host.calls = nil

	if _, err := o.Run(ctx, vst3Config(false), nil); err != nil {
		t.Fatal(err)
	}
	if len(f.host.calls) != 0 {
		t.Errorf("native discovery should stay off after rescan, got calls %v", f.host.calls)
	}
}

func TestRun_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, path := range []string{"/music/VST3/One.vst3", "/MUSIC/vst3/Two.vst3", "/other/Three.vst3"} {
		f.plugins.Save(ctx, &domain.Plugin{Path: path})
	}
	f.symlinks.SaveAll(ctx, []domain.Symlink{{Path: "/music/vst3/link"}, {Path: "/other/link"}})

	scope := t.TempDir()
	cfg := vst3Config(false)
	cfg.DirectoryScope = scope
	// matches the scope ignoring case
	f.plugins.Save(ctx, &domain.Plugin{Path: strings.ToUpper(scope) + "/Stale.vst3"})
	f.probe.files[scope] = []domain.PluginFile{vst3(scope + "/Fresh.vst3")}

	stats, err := f.orchestrator().Run(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"/MUSIC/vst3/Two.vst3", "/music/VST3/One.vst3", "/other/Three.vst3", scope + "/Fresh.vst3"}
	slices.Sort(want)
	if got := pluginPaths(t, f.plugins); !slices.Equal(got, want) {
		t.Errorf("plugins = %v, want %v", got, want)
	}
	if stats.PluginsCleared != 1 || stats.SymlinksCleared != 0 {
		t.Errorf("cleared = %d/%d, want 1/0", stats.PluginsCleared, stats.SymlinksCleared)
	}
}

func TestRun_ProgressMonotonic(t *testing.T) {
	f := newFixture()
	var files []domain.PluginFile
	for _, name := range []string{"A", "B", "C"} {
		files = append(files, vst3("/a/"+name+".vst3"))
	}
	f.probe.files["/a"] = files
	f.host.enabled = true
	f.host.available = true

	var percents []float64
	var messages []string
	listener := ports.SyncListenerFunc(func(p float64, msg string) {
		percents = append(percents, p)
		messages = append(messages, msg)
	})

	if _, err := f.orchestrator().Run(context.Background(), vst3Config(false), listener); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(percents) == 0 || percents[0] != 10 {
		t.Fatalf("first progress = %v, want 10", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress decreased at %d: %v", i, percents)
		}
	}
	if last := percents[len(percents)-1]; last != 100 {
		t.Errorf("last progress = %v, want 100", last)
	}
	if last := messages[len(messages)-1]; last != "Plugins synchronized" {
		t.Errorf("last message = %q", last)
	}
	if !slices.Contains(messages, "Exploring plugin B") {
		t.Errorf("expected an exploring message, got %v", messages)
	}
}

func TestRun_NativeErrorIsolated(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/Crash.vst3"), vst3("/a/Good.vst3")}
	f.host.enabled = true
	f.host.available = true
	f.host.failPaths = map[string]error{"/a/Crash.vst3": errors.New("segfault")}
	f.host.records = map[string][]domain.NativePlugin{"/a/Good.vst3": {{Name: "Good"}}}

	stats, err := f.orchestrator().Run(ctx, vst3Config(false), nil)
	if err != nil {
		t.Fatalf("Run should not fail on a native probe error: %v", err)
	}

	crash, _ := f.plugins.FindByPath(ctx, "/a/Crash.vst3")
	if crash == nil || !crash.SyncComplete || crash.NativeCompatible {
		t.Errorf("crashing plugin should be complete without native data: %+v", crash)
	}
	good, _ := f.plugins.FindByPath(ctx, "/a/Good.vst3")
	if good == nil || !good.NativeCompatible {
		t.Errorf("good plugin should be native compatible: %+v", good)
	}
	if stats.ProbeFailures != 1 {
		t.Errorf("ProbeFailures = %d, want 1", stats.ProbeFailures)
	}
}

func TestRun_ProbeTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/Hang.vst3")}
	f.host.enabled = true
	f.host.available = true
	f.host.block = true

	stats, err := f.orchestrator(WithProbeTimeout(20*time.Millisecond)).Run(ctx, vst3Config(false), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ProbeFailures != 1 {
		t.Errorf("ProbeFailures = %d, want 1", stats.ProbeFailures)
	}
	p, _ := f.plugins.FindByPath(ctx, "/a/Hang.vst3")
	if p == nil || !p.SyncComplete {
		t.Errorf("plugin should still complete: %+v", p)
	}
}

func TestLoadNative_TimeoutMessage(t *testing.T) {
	hostTimeout := fmt.Errorf("scanner interrupted: %w", context.DeadlineExceeded)

	tests := []struct {
		name         string
		probeTimeout time.Duration
		wantWithin   string
	}{
		{name: "orchestrator bound", probeTimeout: 20 * time.Millisecond, wantWithin: "did not answer within 20ms"},
		{name: "host bound only", probeTimeout: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.host.failPaths = map[string]error{"/a/Slow.vst3": hostTimeout}
			r := &syncRun{o: f.orchestrator(WithProbeTimeout(tt.probeTimeout))}

			_, err := r.loadNative(context.Background(), "/a/Slow.vst3")
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected a deadline error, got %v", err)
			}
			if tt.wantWithin != "" && !strings.Contains(err.Error(), tt.wantWithin) {
				t.Errorf("error %q should mention %q", err, tt.wantWithin)
			}
			if tt.wantWithin == "" && strings.Contains(err.Error(), "within") {
				t.Errorf("error %q should not mention a duration", err)
			}
		})
	}
}

// failingPlugins fails Save for one path
type failingPlugins struct {
	ports.PluginRepository
	failPath string
}

func (r *failingPlugins) Save(ctx context.Context, p *domain.Plugin) error {
	if p.Path == r.failPath {
		return errors.New("disk full")
	}
	return r.PluginRepository.Save(ctx, p)
}

func TestRun_PersistenceErrorAborts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/A.vst3"), vst3("/a/B.vst3"), vst3("/a/C.vst3")}
	f.probe.symlinks["/a"] = []domain.Symlink{{Path: "/a/link"}}

	deps := f.deps()
	deps.Plugins = &failingPlugins{PluginRepository: f.plugins, failPath: "/a/B.vst3"}

	var lastMessage string
	listener := ports.SyncListenerFunc(func(_ float64, msg string) { lastMessage = msg })

	stats, err := NewOrchestrator(deps).Run(ctx, vst3Config(false), listener)

	var syncErr *application.SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got %v", err)
	}
	if syncErr.Phase != domain.PhasePluginLoop {
		t.Errorf("failed phase = %s, want plugin_loop", syncErr.Phase)
	}
	var persistErr *application.PersistenceError
	if !errors.As(err, &persistErr) || persistErr.Path != "/a/B.vst3" {
		t.Errorf("expected PersistenceError for B, got %v", err)
	}
	if stats == nil || stats.Phase != domain.PhaseFailed || stats.PluginsSynced != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !strings.HasPrefix(lastMessage, "Plugins synchronization failed") {
		t.Errorf("last message = %q", lastMessage)
	}

	// no rollback
	if got := pluginPaths(t, f.plugins); !slices.Equal(got, []string{"/a/A.vst3"}) {
		t.Errorf("plugins = %v, want [/a/A.vst3]", got)
	}
	if links, _ := f.symlinks.FindAll(ctx); len(links) != 1 {
		t.Errorf("symlinks should stay committed, got %v", links)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.plugins.Save(ctx, &domain.Plugin{Path: "/a/Keep.vst3"})

	cfg := vst3Config(false)
	cfg.Formats = nil

	stats, err := f.orchestrator().Run(ctx, cfg, nil)
	var cfgErr *application.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if stats != nil {
		t.Errorf("stats should be nil, got %+v", stats)
	}
	if got := pluginPaths(t, f.plugins); len(got) != 1 {
		t.Errorf("nothing should be cleared, got %v", got)
	}
}

// cancellingListener cancels the run once progress reaches after
type cancellingListener struct {
	cancel context.CancelFunc
	after  float64
}

func (l *cancellingListener) OnProgress(percent float64, _ string) {
	if percent >= l.after {
		l.cancel()
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture()
	f.probe.files["/a"] = []domain.PluginFile{vst3("/a/A.vst3"), vst3("/a/B.vst3"), vst3("/a/C.vst3"), vst3("/a/D.vst3")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// 10% + 20% per plugin: cancel right after the second plugin
	listener := &cancellingListener{cancel: cancel, after: 50}

	stats, err := f.orchestrator().Run(ctx, vst3Config(false), listener)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.PluginsSynced != 2 {
		t.Errorf("PluginsSynced = %d, want 2", stats.PluginsSynced)
	}
	if got := pluginPaths(t, f.plugins); !slices.Equal(got, []string{"/a/A.vst3", "/a/B.vst3"}) {
		t.Errorf("committed plugins = %v", got)
	}
}

// blockingProbe blocks plugin collection until released
type blockingProbe struct {
	stubProbe
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProbe) CollectPluginFiles(ctx context.Context, dir string, format domain.PluginFormat) ([]domain.PluginFile, error) {
	p.entered <- struct{}{}
	<-p.release
	return nil, nil
}

func TestRun_ConcurrentRunRejected(t *testing.T) {
	f := newFixture()
	probe := &blockingProbe{entered: make(chan struct{}), release: make(chan struct{})}
	deps := f.deps()
	deps.PluginProbe = probe
	o := NewOrchestrator(deps)

	done := make(chan error)
	go func() {
		_, err := o.Run(context.Background(), vst3Config(false), nil)
		done <- err
	}()

	<-probe.entered
	if _, err := o.Run(context.Background(), vst3Config(false), nil); !errors.Is(err, application.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
	close(probe.release)

	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	// the lock is released once the run ends
	go func() {
		<-probe.entered
	}()
	if _, err := o.Run(context.Background(), vst3Config(false), nil); err != nil {
		t.Errorf("run after completion: %v", err)
	}
}

func TestRun_Concurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	var files []domain.PluginFile
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		files = append(files, vst3("/a/"+name+".vst3"))
	}
	f.probe.files["/a"] = files
	f.host.enabled = true
	f.host.available = true
	f.host.records = map[string][]domain.NativePlugin{}
	for _, file := range files {
		f.host.records[file.Path] = []domain.NativePlugin{{Name: file.Name()}}
	}

	var mu sync.Mutex
	var last float64
	listener := ports.SyncListenerFunc(func(p float64, _ string) {
		mu.Lock()
		defer mu.Unlock()
		if p < last {
			t.Errorf("progress decreased: %v after %v", p, last)
		}
		last = p
	})

	stats, err := f.orchestrator(WithConcurrency(3)).Run(ctx, vst3Config(false), listener)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.PluginsSynced != len(files) || stats.NativeCompatible != len(files) {
		t.Errorf("stats = %+v", stats)
	}
	if last != 100 {
		t.Errorf("last progress = %v, want 100", last)
	}
	if f.footprints.Len() != len(files) {
		t.Errorf("footprints = %d, want %d", f.footprints.Len(), len(files))
	}
}

func TestRun_RelativeScopeMatchesAbsoluteDirectory(t *testing.T) {
	ctx := context.Background()
	work := t.TempDir()
	t.Chdir(work)
	if err := os.MkdirAll(filepath.Join("vst3", "Synth.vst3"), 0755); err != nil {
		t.Fatal(err)
	}
	absDir, err := filepath.Abs("vst3")
	if err != nil {
		t.Fatal(err)
	}

	f := newFixture()
	deps := f.deps()
	deps.PluginProbe = filesystem.NewPluginFileCollector(domain.PlatformLinux, nil)
	deps.SymlinkProbe = filesystem.NewSymlinkCollector(nil)
	o := NewOrchestrator(deps)

	full := vst3Config(false)
	full.DirectoryScope = "vst3"
	if _, err := o.Run(ctx, full, nil); err != nil {
		t.Fatalf("scoped run: %v", err)
	}

	want := []string{filepath.Join(absDir, "Synth.vst3")}
	if got := pluginPaths(t, f.plugins); !slices.Equal(got, want) {
		t.Fatalf("catalog after scoped run = %v, want %v", got, want)
	}

	diff := vst3Config(true)
	diff.Formats[domain.FormatVST3] = domain.FormatConfig{Enabled: true, Directory: absDir}
	stats, err := o.Run(ctx, diff, nil)
	if err != nil {
		t.Fatalf("differential run: %v", err)
	}

	if stats.PluginsCollected != 0 || stats.PluginsRemoved != 0 {
		t.Errorf("differential run collected %d, removed %d; want 0, 0", stats.PluginsCollected, stats.PluginsRemoved)
	}
	if got := pluginPaths(t, f.plugins); !slices.Equal(got, want) {
		t.Errorf("catalog after differential run = %v, want %v", got, want)
	}
	if f.footprints.Creates != 1 {
		t.Errorf("footprints created = %d, want 1", f.footprints.Creates)
	}
}
