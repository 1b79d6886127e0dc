package rank

import (
	"context"
	"testing"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
)

func fixtureCatalog() *catalog.Catalog {
	items := []catalog.Item{
		{ID: "A", Title: "Reef Snorkel", Tags: []string{"reef", "snorkel"}},
		{ID: "B", Title: "Museum", Tags: []string{"museum"}},
		{ID: "C", Title: "Reef Dive", Tags: []string{"reef", "dive"}},
		{ID: "D", Title: "Reef Swim", Tags: []string{"reef", "snorkel"}},
	}
	return catalog.New(items, nil)
}

func TestMinMax01(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]float64
		want map[string]float64
	}{
		{
			name: "spread values map to [0,1]",
			in:   map[string]float64{"a": 1, "b": 3, "c": 2},
			want: map[string]float64{"a": 0, "b": 1, "c": 0.5},
		},
		{
			name: "all equal normalizes to 0",
			in:   map[string]float64{"a": 7, "b": 7},
			want: map[string]float64{"a": 0, "b": 0},
		},
		{
			name: "empty map stays empty",
			in:   map[string]float64{},
			want: map[string]float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinMax01(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("size mismatch: %v", got)
			}
			for k, w := range tt.want {
				if got[k] != w {
					t.Errorf("%s: got %v, want %v", k, got[k], w)
				}
			}
		})
	}
}

func TestHybridRankerBlocksGuardedIDs(t *testing.T) {
	r := NewHybridRanker(fixtureCatalog(), 0.6, 0.4)
	content := map[string]float64{"A": 1, "B": 0.5, "C": 0.8, "D": 0.9}

	picked := r.Rank([]string{"A", "B", "C", "D"}, content, nil, NewBlockedIDs("A", "C"), 10)
	for _, id := range picked {
		if id == "A" || id == "C" {
			t.Errorf("blocked id %s in output", id)
		}
	}
	if len(picked) != 2 {
		t.Errorf("want 2 survivors, got %v", picked)
	}
}

func TestHybridRankerFusionDefaultsMissingToZero(t *testing.T) {
	r := NewHybridRanker(fixtureCatalog(), 0.5, 0.5)

	// B 只有协同分也要有资格胜出
	collab := map[string]float64{"B": 1.0}
	content := map[string]float64{"A": 0.1}
	picked := r.Rank([]string{"A", "B"}, content, collab, nil, 1)
	if len(picked) != 1 || picked[0] != "B" {
		t.Errorf("collab-only item should win: %v", picked)
	}
}

func TestHybridRankerMMRDiversifies(t *testing.T) {
	r := NewHybridRanker(fixtureCatalog(), 1, 0)

	// A 与 D 标签完全相同；纯相关性次序是 A, D, B, C，
	// MMR 应在第二位引入不同标签的候选
	content := map[string]float64{"A": 1.0, "D": 0.95, "B": 0.9, "C": 0.85}
	picked := r.Rank([]string{"A", "B", "C", "D"}, content, nil, nil, 3)
	if picked[0] != "A" {
		t.Fatalf("highest fused must be picked first: %v", picked)
	}
	if picked[1] == "D" {
		t.Errorf("near-duplicate D should be demoted by redundancy penalty: %v", picked)
	}
}

func TestHybridRankerDeterministic(t *testing.T) {
	r := NewHybridRanker(fixtureCatalog(), 0.6, 0.4)
	content := map[string]float64{"A": 0.9, "B": 0.8, "C": 0.7, "D": 0.6}

	first := r.Rank([]string{"A", "B", "C", "D"}, content, nil, nil, 4)
	second := r.Rank([]string{"A", "B", "C", "D"}, content, nil, nil, 4)
	if len(first) != len(second) {
		t.Fatal("length mismatch")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ranking must be deterministic: %v vs %v", first, second)
		}
	}
}

func TestHybridNodeProcess(t *testing.T) {
	node := &HybridNode{Alpha: 0.6, Beta: 0.4}

	a := core.NewItem("A")
	a.PutFeature("content_score", 0.9)
	a.PutFeature("collab_score", 0.1)
	b := core.NewItem("B")
	b.PutFeature("content_score", 0.1)
	b.PutFeature("collab_score", 0.9)
	c := core.NewItem("C")
	c.PutFeature("content_score", 0.5)

	items, err := node.Process(context.Background(), &core.RecommendContext{}, []*core.Item{a, b, c})
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(items); i++ {
		if items[i-1].Score < items[i].Score {
			t.Error("items must be sorted by fused score desc")
		}
	}
	// 归一化后 A: 0.6*1 + 0.4*0 = 0.6 最高
	if items[0].ID != "A" {
		t.Errorf("want A first, got %s", items[0].ID)
	}
	if _, ok := items[0].Features["content_score_norm"]; !ok {
		t.Error("normalized component scores must be recorded")
	}
	if lbl, ok := items[0].Labels["rank_fusion"]; !ok || lbl.Value != "hybrid" {
		t.Error("fusion label missing")
	}
}
