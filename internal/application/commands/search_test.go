package commands

import (
	"context"
	"testing"

	"owlsync/internal/adapters/memory"
	"owlsync/internal/domain"
)

func TestFuzzyScore(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		query     string
		wantScore int
		wantMin   int // use this for relative comparisons
	}{
		{
			name:      "exact match",
			target:    "Diva",
			query:     "Diva",
			wantScore: 150,
		},
		{
			name:      "prefix match",
			target:    "Valhalla Room",
			query:     "valhalla",
			wantScore: 150,
		},
		{
			name:      "substring match",
			target:    "TAL-NoiseMaker",
			query:     "noise",
			wantScore: 100,
		},
		{
			name:    "fuzzy match across words",
			target:  "Pro-Q 3",
			query:   "pq3",
			wantMin: 1,
		},
		{
			name:      "no match",
			target:    "Diva",
			query:     "xyz",
			wantScore: 0,
		},
		{
			name:      "empty query",
			target:    "Diva",
			query:     "",
			wantScore: 0,
		},
		{
			name:    "case insensitive",
			target:  "SERUM",
			query:   "serum",
			wantMin: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := FuzzyScore(tt.target, tt.query)

			if tt.wantScore > 0 {
				if score != tt.wantScore {
					t.Errorf("expected score %d, got %d", tt.wantScore, score)
				}
			} else if tt.wantMin > 0 {
				if score < tt.wantMin {
					t.Errorf("expected score >= %d, got %d", tt.wantMin, score)
				}
			} else {
				if score != 0 {
					t.Errorf("expected score 0, got %d", score)
				}
			}
		})
	}
}

func TestFuzzyScore_Ordering(t *testing.T) {
	query := "reverb"

	prefixScore := FuzzyScore("reverb hall", query)
	containsScore := FuzzyScore("room reverb", query)
	fuzzyScore := FuzzyScore("r.e.v.e.r.b", query)

	if prefixScore < containsScore {
		t.Errorf("prefix match should score >= contains: %d < %d", prefixScore, containsScore)
	}
	if containsScore <= fuzzyScore {
		t.Errorf("contains match should score higher than fuzzy: %d <= %d", containsScore, fuzzyScore)
	}
}

func TestRankPlugins(t *testing.T) {
	plugins := []domain.Plugin{
		{Path: "/vst3/Random.vst3", Name: "Random"},
		{Path: "/vst3/ValhallaRoom.vst3", Name: "ValhallaRoom", ManufacturerName: "Valhalla DSP"},
		{Path: "/vst3/Cooking.vst3", Name: "Cooking"},
		{Path: "/vst3/Supermassive.vst3", Name: "Supermassive", ManufacturerName: "Valhalla DSP"},
	}

	ranked := RankPlugins(plugins, "valhalla")

	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("results not sorted by score: %d > %d at index %d",
				ranked[i].Score, ranked[i-1].Score, i)
		}
	}
	if ranked[0].Plugin.Name != "ValhallaRoom" {
		t.Errorf("expected ValhallaRoom first, got %s", ranked[0].Plugin.Name)
	}
}

func TestSearchPluginsCommand_ShortQuery(t *testing.T) {
	repo := memory.NewPlugins()
	repo.Save(context.Background(), &domain.Plugin{Path: "/a/Diva.vst3", Name: "Diva"})

	results, err := NewSearchPluginsCommand(repo, "d").Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results for a one-letter query, got %v", results)
	}
}
