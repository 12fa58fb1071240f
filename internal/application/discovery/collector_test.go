package discovery

import (
	"context"
	"errors"
	"slices"
	"testing"

	"owlsync/internal/domain"
)

// fakeProbe serves canned results per directory and records calls
type fakeProbe struct {
	files    map[string][]domain.PluginFile // key: dir + "|" + format
	symlinks map[string][]domain.Symlink
	failDirs map[string]error
	panicDir string

	pluginCalls  []string
	symlinkCalls []string
}

func (f *fakeProbe) CollectPluginFiles(_ context.Context, dir string, format domain.PluginFormat) ([]domain.PluginFile, error) {
	f.pluginCalls = append(f.pluginCalls, dir+"|"+format.String())
	if dir == f.panicDir {
		panic("probe exploded")
	}
	if err, ok := f.failDirs[dir]; ok {
		return nil, err
	}
	return f.files[dir+"|"+format.String()], nil
}

func (f *fakeProbe) CollectSymlinks(_ context.Context, dir string) ([]domain.Symlink, error) {
	f.symlinkCalls = append(f.symlinkCalls, dir)
	if err, ok := f.failDirs[dir]; ok {
		return nil, err
	}
	return f.symlinks[dir], nil
}

func vst3(path string) domain.PluginFile {
	return domain.PluginFile{Path: path, Format: domain.FormatVST3, Bundle: true}
}

func TestCollector_Scan_PerFormatDirectories(t *testing.T) {
	probe := &fakeProbe{
		files: map[string][]domain.PluginFile{
			"/vst3|vst3":       {vst3("/vst3/Diva.vst3"), vst3("/vst3/Repro.vst3")},
			"/extra/vst3|vst3": {vst3("/extra/vst3/Zebra.vst3")},
			"/lv2|lv2":         {{Path: "/lv2/eq.lv2", Format: domain.FormatLV2, Bundle: true}},
		},
		symlinks: map[string][]domain.Symlink{
			"/vst3":       {{Path: "/vst3/link", TargetPath: "/opt/Diva.vst3"}},
			"/extra/vst3": {{Path: "/extra/vst3/link2", TargetPath: "/opt/x"}},
		},
	}

	cfg := domain.ScanConfig{
		Platform: domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/vst3", ExtraDirectories: []string{"/extra/vst3"}},
			domain.FormatLV2:  {Enabled: true, Directory: "/lv2"},
			domain.FormatVST2: {Enabled: false, Directory: "/vst"},
		},
	}

	got, err := NewCollector(probe, probe).Scan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	wantPaths := []string{"/lv2/eq.lv2", "/vst3/Diva.vst3", "/vst3/Repro.vst3", "/extra/vst3/Zebra.vst3"}
	if paths := domain.Keys(got.PluginFiles); !slices.Equal(paths, wantPaths) {
		t.Errorf("plugin paths = %v, want %v", paths, wantPaths)
	}

	if len(got.Symlinks) != 2 {
		t.Errorf("expected 2 symlinks, got %d", len(got.Symlinks))
	}

	for _, call := range probe.pluginCalls {
		if call == "/vst|vst2" {
			t.Error("disabled format should not be probed")
		}
	}
}

func TestCollector_Scan_DirectoryScopeOverrides(t *testing.T) {
	scope := "/home/me/plugins"
	probe := &fakeProbe{
		files: map[string][]domain.PluginFile{
			scope + "|vst3": {vst3(scope + "/Diva.vst3")},
			scope + "|vst2": {{Path: scope + "/Old.so", Format: domain.FormatVST2}},
		},
		symlinks: map[string][]domain.Symlink{
			scope: {{Path: scope + "/link", TargetPath: "/opt"}},
		},
	}

	cfg := domain.ScanConfig{
		DirectoryScope: scope,
		Platform:       domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/usr/lib/vst3"},
			domain.FormatVST2: {Enabled: true, Directory: "/usr/lib/vst"},
		},
	}

	got, err := NewCollector(probe, probe).Scan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	wantCalls := []string{scope + "|vst3", scope + "|vst2"}
	if !slices.Equal(probe.pluginCalls, wantCalls) {
		t.Errorf("plugin probe calls = %v, want %v", probe.pluginCalls, wantCalls)
	}
	if !slices.Equal(probe.symlinkCalls, []string{scope}) {
		t.Errorf("symlinks should be collected once from the scope, got %v", probe.symlinkCalls)
	}
	if len(got.PluginFiles) != 2 || len(got.Symlinks) != 1 {
		t.Errorf("got %d plugins and %d symlinks, want 2 and 1", len(got.PluginFiles), len(got.Symlinks))
	}
}

func TestCollector_Scan_DeduplicatesAcrossFormatsAndDirectories(t *testing.T) {
	probe := &fakeProbe{
		files: map[string][]domain.PluginFile{
			"/shared|vst3": {vst3("/shared/Dual.vst3")},
			"/shared|vst2": {{Path: "/shared/Dual.vst3", Format: domain.FormatVST2}},
			"/nested|vst3": {vst3("/shared/Dual.vst3")},
		},
	}

	cfg := domain.ScanConfig{
		Platform: domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/shared", ExtraDirectories: []string{"/nested"}},
			domain.FormatVST2: {Enabled: true, Directory: "/shared"},
		},
	}

	got, err := NewCollector(probe, probe).Scan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(got.PluginFiles) != 1 {
		t.Fatalf("expected 1 deduplicated plugin file, got %d", len(got.PluginFiles))
	}
	if got.PluginFiles[0].Format != domain.FormatVST3 {
		t.Errorf("first discovered format should win, got %s", got.PluginFiles[0].Format)
	}

	// "/shared" is configured for two formats but its symlinks are read once
	count := 0
	for _, d := range probe.symlinkCalls {
		if d == "/shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected /shared symlinks to be collected once, got %d", count)
	}
}

func TestCollector_Scan_ProbeFailureIsNotFatal(t *testing.T) {
	probe := &fakeProbe{
		files: map[string][]domain.PluginFile{
			"/good|vst3": {vst3("/good/Diva.vst3")},
		},
		failDirs: map[string]error{"/broken": errors.New("permission denied")},
		panicDir: "/panics",
	}

	cfg := domain.ScanConfig{
		Platform: domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/broken", ExtraDirectories: []string{"/panics", "/good"}},
		},
	}

	got, err := NewCollector(probe, probe).Scan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Scan should not fail on probe errors: %v", err)
	}

	if len(got.PluginFiles) != 1 || got.PluginFiles[0].Path != "/good/Diva.vst3" {
		t.Errorf("expected only /good/Diva.vst3, got %v", domain.Keys(got.PluginFiles))
	}

	// broken: plugin + symlink probe fail; panics: plugin probe panics
	if len(got.ScanErrors) != 3 {
		t.Errorf("expected 3 recorded scan errors, got %d", len(got.ScanErrors))
	}
}

func TestCollector_Scan_Cancelled(t *testing.T) {
	probe := &fakeProbe{}
	cfg := domain.ScanConfig{
		Platform: domain.PlatformLinux,
		Formats: map[domain.PluginFormat]domain.FormatConfig{
			domain.FormatVST3: {Enabled: true, Directory: "/vst3"},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCollector(probe, probe).Scan(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(probe.pluginCalls) != 0 {
		t.Error("no probe should run after cancellation")
	}
}
