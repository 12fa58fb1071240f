package commands

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"owlsync/internal/domain"
	"owlsync/internal/ports"
)

// SearchResult is a plugin with its relevance score
type SearchResult struct {
	Plugin domain.Plugin
	Score  int
}

// SearchPluginsCommand searches the catalog with fuzzy matching on names,
// manufacturer and file name
type SearchPluginsCommand struct {
	repo  ports.PluginRepository
	Query string
}

// NewSearchPluginsCommand creates a new SearchPluginsCommand
func NewSearchPluginsCommand(repo ports.PluginRepository, query string) *SearchPluginsCommand {
	return &SearchPluginsCommand{
		repo:  repo,
		Query: query,
	}
}

// Execute returns the matching plugins, best match first
func (c *SearchPluginsCommand) Execute(ctx context.Context) ([]SearchResult, error) {
	if len(c.Query) < 2 {
		return nil, nil
	}

	plugins, err := c.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return RankPlugins(plugins, c.Query), nil
}

// FuzzyScore rates how well target matches query. Substring matches beat
// in-order character matches; zero means no match.
func FuzzyScore(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	if query == "" {
		return 0
	}

	if idx := strings.Index(target, query); idx >= 0 {
		if idx == 0 {
			return 150
		}
		return 100
	}

	score := 0
	qi := 0
	prev := -1
	for i := 0; i < len(target) && qi < len(query); i++ {
		if target[i] != query[qi] {
			continue
		}
		switch {
		case i == 0:
			score += 15
		case isWordBoundary(target[i-1]):
			score += 10
		}
		if prev == i-1 {
			score += 10
		}
		score++
		prev = i
		qi++
	}

	if qi < len(query) {
		return 0
	}
	return score
}

func isWordBoundary(b byte) bool {
	return b == ' ' || b == '.' || b == '-' || b == '_'
}

// RankPlugins scores plugins against the query and sorts them by
// descending score. Plugins that do not match are dropped.
func RankPlugins(plugins []domain.Plugin, query string) []SearchResult {
	scored := make([]SearchResult, 0, len(plugins))

	for _, p := range plugins {
		best := max(
			FuzzyScore(p.Name, query),
			FuzzyScore(p.DescriptiveName, query),
			FuzzyScore(p.ManufacturerName, query),
			FuzzyScore(filepath.Base(p.Path), query),
		)
		if best > 0 {
			scored = append(scored, SearchResult{Plugin: p, Score: best})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
