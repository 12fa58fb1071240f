// Package memory provides in-memory catalog repositories used as test
// fixtures. Nothing is persisted.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

var (
	_ ports.PluginRepository    = (*Plugins)(nil)
	_ ports.SymlinkRepository   = (*Symlinks)(nil)
	_ ports.FootprintRepository = (*Footprints)(nil)
)

// Plugins stores plugins keyed by path, in insertion order
type Plugins struct {
	mu     sync.Mutex
	nextID int64
	order  []string
	byPath map[string]domain.Plugin

	// Saves counts calls to Save
	Saves int
}

// NewPlugins creates an empty plugin store
func NewPlugins() *Plugins {
	return &Plugins{byPath: make(map[string]domain.Plugin)}
}

func (s *Plugins) FindAll(_ context.Context) ([]domain.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Plugin, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, clonePlugin(s.byPath[path]))
	}
	return out, nil
}

func (s *Plugins) FindByPath(_ context.Context, path string) (*domain.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byPath[path]
	if !ok {
		return nil, nil
	}
	p = clonePlugin(p)
	return &p, nil
}

func (s *Plugins) Save(_ context.Context, plugin *domain.Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++

	if existing, ok := s.byPath[plugin.Path]; ok {
		plugin.ID = existing.ID
	} else {
		s.nextID++
		plugin.ID = s.nextID
		s.order = append(s.order, plugin.Path)
	}
	for i := range plugin.Components {
		plugin.Components[i].PluginID = plugin.ID
	}
	s.byPath[plugin.Path] = clonePlugin(*plugin)
	return nil
}

func (s *Plugins) DeleteByPath(_ context.Context, path string) (int64, error) {
	return s.deleteWhere(func(p string) bool { return p == path }), nil
}

func (s *Plugins) DeleteByPathContaining(_ context.Context, substr string) (int64, error) {
	return s.deleteWhere(containsFold(substr)), nil
}

func (s *Plugins) DeleteAll(_ context.Context) (int64, error) {
	return s.deleteWhere(func(string) bool { return true }), nil
}

func (s *Plugins) deleteWhere(match func(string) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	s.order = slices.DeleteFunc(s.order, func(path string) bool {
		if !match(path) {
			return false
		}
		delete(s.byPath, path)
		n++
		return true
	})
	return n
}

func clonePlugin(p domain.Plugin) domain.Plugin {
	p.Components = slices.Clone(p.Components)
	if p.Footprint != nil {
		fp := *p.Footprint
		p.Footprint = &fp
	}
	return p
}

// Symlinks stores symlinks keyed by path, in insertion order
type Symlinks struct {
	mu     sync.Mutex
	nextID int64
	links  []domain.Symlink
}

// NewSymlinks creates an empty symlink store
func NewSymlinks() *Symlinks {
	return &Symlinks{}
}

func (s *Symlinks) FindAll(_ context.Context) ([]domain.Symlink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.links), nil
}

func (s *Symlinks) SaveAll(_ context.Context, symlinks []domain.Symlink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range symlinks {
		idx := slices.IndexFunc(s.links, func(l domain.Symlink) bool { return l.Path == link.Path })
		if idx >= 0 {
			link.ID = s.links[idx].ID
			s.links[idx] = link
			continue
		}
		s.nextID++
		link.ID = s.nextID
		s.links = append(s.links, link)
	}
	return nil
}

func (s *Symlinks) DeleteByPath(_ context.Context, path string) (int64, error) {
	return s.deleteWhere(func(p string) bool { return p == path }), nil
}

func (s *Symlinks) DeleteByPathContaining(_ context.Context, substr string) (int64, error) {
	return s.deleteWhere(containsFold(substr)), nil
}

func (s *Symlinks) DeleteAll(_ context.Context) (int64, error) {
	return s.deleteWhere(func(string) bool { return true }), nil
}

func (s *Symlinks) deleteWhere(match func(string) bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.links)
	s.links = slices.DeleteFunc(s.links, func(l domain.Symlink) bool { return match(l.Path) })
	return int64(before - len(s.links))
}

// Footprints stores footprints keyed by path
type Footprints struct {
	mu     sync.Mutex
	nextID int64
	byPath map[string]domain.PluginFootprint

	// Creates counts calls to Create
	Creates int
}

// NewFootprints creates an empty footprint store
func NewFootprints() *Footprints {
	return &Footprints{byPath: make(map[string]domain.PluginFootprint)}
}

func (s *Footprints) FindByPath(_ context.Context, path string) (*domain.PluginFootprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.byPath[path]
	if !ok {
		return nil, nil
	}
	return &fp, nil
}

func (s *Footprints) Create(_ context.Context, footprint *domain.PluginFootprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPath[footprint.Path]; ok {
		return &DuplicateError{Path: footprint.Path}
	}
	s.Creates++
	s.nextID++
	footprint.ID = s.nextID
	s.byPath[footprint.Path] = *footprint
	return nil
}

func (s *Footprints) Update(_ context.Context, footprint *domain.PluginFootprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byPath[footprint.Path]
	if !ok {
		return &MissingError{Path: footprint.Path}
	}
	footprint.ID = existing.ID
	s.byPath[footprint.Path] = *footprint
	return nil
}

func (s *Footprints) DeleteByPath(_ context.Context, path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPath[path]; !ok {
		return 0, nil
	}
	delete(s.byPath, path)
	return 1, nil
}

// Len returns the number of stored footprints
func (s *Footprints) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byPath)
}

// DuplicateError is returned when creating a footprint that already exists
type DuplicateError struct {
	Path string
}

func (e *DuplicateError) Error() string {
	return "footprint already exists: " + e.Path
}

// MissingError is returned when updating a footprint that does not exist
type MissingError struct {
	Path string
}

func (e *MissingError) Error() string {
	return "footprint not found: " + e.Path
}

func containsFold(substr string) func(string) bool {
	needle := strings.ToLower(substr)
	return func(path string) bool {
		return strings.Contains(strings.ToLower(path), needle)
	}
}
