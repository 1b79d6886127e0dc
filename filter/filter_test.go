package filter

import (
	"context"
	"testing"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/store"
)

func metaItem(id string, meta map[string]any) *core.Item {
	it := core.NewItem(id)
	for k, v := range meta {
		it.Meta[k] = v
	}
	return it
}

func TestBlacklistFilter(t *testing.T) {
	f := NewBlacklistFilter("bad1", "bad2")

	drop, err := f.ShouldFilter(context.Background(), nil, core.NewItem("bad1"))
	if err != nil || !drop {
		t.Errorf("bad1 should be filtered, drop=%v err=%v", drop, err)
	}
	drop, err = f.ShouldFilter(context.Background(), nil, core.NewItem("ok"))
	if err != nil || drop {
		t.Errorf("ok should pass, drop=%v err=%v", drop, err)
	}

	// Blocked 提供给排序前屏蔽复用
	if !f.Blocked("bad2") || f.Blocked("ok") {
		t.Error("Blocked mismatch with item list")
	}
}

func TestBlacklistFilterStore(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	if err := ms.Set(context.Background(), "ops:blocked", []byte(`["bad3"]`)); err != nil {
		t.Fatal(err)
	}

	f := &BlacklistFilter{Store: ms, Key: "ops:blocked"}

	drop, err := f.ShouldFilter(context.Background(), nil, core.NewItem("bad3"))
	if err != nil || !drop {
		t.Errorf("store blacklist should drop bad3, drop=%v err=%v", drop, err)
	}
	drop, err = f.ShouldFilter(context.Background(), nil, core.NewItem("ok"))
	if err != nil || drop {
		t.Errorf("ok should pass store blacklist, drop=%v err=%v", drop, err)
	}
}

func TestPolicyFilter(t *testing.T) {
	night := metaItem("C", map[string]any{"nightlife": true, "family_friendly": false})
	family := metaItem("A", map[string]any{"nightlife": false, "family_friendly": true})

	rctx := &core.RecommendContext{
		Profile: &core.TravelProfile{AvoidNightlife: true},
	}
	f := &PolicyFilter{}

	drop, _ := f.ShouldFilter(context.Background(), rctx, night)
	if !drop {
		t.Error("profile avoid_nightlife should drop nightlife item")
	}
	drop, _ = f.ShouldFilter(context.Background(), rctx, family)
	if drop {
		t.Error("non-nightlife item should pass")
	}

	// 过滤器自身开关与画像开关 OR 合并
	f2 := &PolicyFilter{FamilyFriendly: true}
	drop, _ = f2.ShouldFilter(context.Background(), &core.RecommendContext{}, night)
	if !drop {
		t.Error("filter-level family switch should drop non-family item")
	}
}

func TestDSLFilter(t *testing.T) {
	expensive := metaItem("X", map[string]any{"price": 500.0})
	cheap := metaItem("Y", map[string]any{"price": 20.0})

	rctx := &core.RecommendContext{
		Profile: &core.TravelProfile{MaxBudget: 300, MaxHours: 12, MinActivities: 2},
	}
	f := &DSLFilter{Expr: `item.meta.price > rctx.profile.max_budget`}

	drop, err := f.ShouldFilter(context.Background(), rctx, expensive)
	if err != nil {
		t.Fatal(err)
	}
	if !drop {
		t.Error("price over budget should be filtered")
	}
	drop, err = f.ShouldFilter(context.Background(), rctx, cheap)
	if err != nil {
		t.Fatal(err)
	}
	if drop {
		t.Error("cheap item should pass")
	}
}

func TestFilterNode(t *testing.T) {
	node := &FilterNode{Filters: []Filter{NewBlacklistFilter("bad")}}

	items := []*core.Item{core.NewItem("bad"), core.NewItem("good")}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "good" {
		t.Fatalf("want only good left, got %v", out)
	}
}
