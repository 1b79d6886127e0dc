package planner

import (
	"sort"
	"strings"
	"testing"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
)

func fixtureCatalog() *catalog.Catalog {
	items := []catalog.Item{
		{ID: "A", Title: "Reef Snorkel", Tags: []string{"reef", "snorkel"}, Price: 50, DurationHr: 2, FamilyFriendly: true},
		{ID: "B", Title: "City Museum", Tags: []string{"museum"}, Price: 30, DurationHr: 1, FamilyFriendly: true},
		{ID: "C", Title: "Night Bar Crawl", Tags: []string{"nightlife", "bar"}, Price: 100, DurationHr: 3, Nightlife: true},
		{ID: "D", Title: "Reef Dive", Tags: []string{"reef", "dive"}, Price: 80, DurationHr: 3, FamilyFriendly: true},
		{ID: "E", Title: "Street Food Walk", Tags: []string{"food", "walk"}, Price: 25, DurationHr: 2, FamilyFriendly: true},
	}
	return catalog.New(items, nil)
}

func defaultProfile() *core.TravelProfile {
	p := core.NewTravelProfile()
	p.MaxBudget = 200
	p.MaxHours = 6
	p.MinActivities = 2
	return p
}

func allIDs(c *catalog.Catalog) []string {
	ids := make([]string, 0, c.Len())
	for _, it := range c.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestScoreItemPreferTags(t *testing.T) {
	a := catalog.Item{ID: "A", Tags: []string{"reef", "snorkel"}, Price: 50}
	b := catalog.Item{ID: "B", Tags: []string{"museum"}, Price: 30}
	prefer := map[string]struct{}{"reef": {}}

	// B 更便宜，但 A 命中偏好标签后必须反超
	if ScoreItem(a, prefer) <= ScoreItem(b, prefer) {
		t.Errorf("tag match should outweigh price: A=%v B=%v",
			ScoreItem(a, prefer), ScoreItem(b, prefer))
	}
	// 无偏好时便宜者胜
	if ScoreItem(a, nil) >= ScoreItem(b, nil) {
		t.Error("without prefer tags the cheaper item must score higher")
	}
}

func TestComposeFeasibility(t *testing.T) {
	c := fixtureCatalog()
	p := defaultProfile()
	p.AvoidNightlife = true

	plans, err := Compose(allIDs(c), c, p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) == 0 {
		t.Fatal("want at least one feasible plan")
	}

	for _, plan := range plans {
		var cost, hours float64
		for _, it := range plan.Items {
			cost += it.Price
			hours += it.DurationHr
			if it.Nightlife {
				t.Errorf("avoid_nightlife violated by %s", it.ID)
			}
		}
		if cost > p.MaxBudget {
			t.Errorf("budget violated: %v > %v", cost, p.MaxBudget)
		}
		if hours > p.MaxHours {
			t.Errorf("hours violated: %v > %v", hours, p.MaxHours)
		}
		if cost != plan.TotalCost || hours != plan.TotalHours {
			t.Errorf("plan totals inconsistent: %+v", plan)
		}
		if len(plan.Items) < p.MinActivities {
			t.Errorf("min activities violated: %d", len(plan.Items))
		}
	}
}

func TestComposeNeverIncludesNightlifeItem(t *testing.T) {
	// 3 活动场景：avoid_nightlife 下任何行程都不得包含 C
	items := []catalog.Item{
		{ID: "A", Tags: []string{"reef", "snorkel"}, Price: 50, DurationHr: 2, FamilyFriendly: true},
		{ID: "B", Tags: []string{"museum"}, Price: 30, DurationHr: 1, FamilyFriendly: true},
		{ID: "C", Tags: []string{"nightlife", "bar"}, Price: 100, DurationHr: 3, Nightlife: true},
	}
	c := catalog.New(items, nil)

	p := defaultProfile()
	p.AvoidNightlife = true

	plans, err := Compose([]string{"A", "B", "C"}, c, p, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, plan := range plans {
		for _, it := range plan.Items {
			if it.ID == "C" {
				t.Fatal("plan contains nightlife item C")
			}
		}
	}
}

func TestComposeDedupsPlanSets(t *testing.T) {
	c := fixtureCatalog()
	plans, err := Compose(allIDs(c), c, defaultProfile(), 30)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]struct{})
	for _, plan := range plans {
		ids := make([]string, 0, len(plan.Items))
		for _, it := range plan.Items {
			ids = append(ids, it.ID)
		}
		sort.Strings(ids)
		key := strings.Join(ids, "|")
		if _, dup := seen[key]; dup {
			t.Errorf("duplicate plan set: %s", key)
		}
		seen[key] = struct{}{}
	}
}

func TestComposeSortedAndScored(t *testing.T) {
	c := fixtureCatalog()
	plans, err := Compose(allIDs(c), c, defaultProfile(), 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(plans); i++ {
		if plans[i-1].Score < plans[i].Score {
			t.Error("plans must be sorted by score desc")
		}
	}
}

func TestComposeIdempotent(t *testing.T) {
	c := fixtureCatalog()
	p := defaultProfile()

	first, err := Compose(allIDs(c), c, p, 10)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compose(allIDs(c), c, p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Score != second[i].Score || len(first[i].Items) != len(second[i].Items) {
			t.Fatalf("plan %d differs between runs", i)
		}
		for j := range first[i].Items {
			if first[i].Items[j].ID != second[i].Items[j].ID {
				t.Fatalf("plan %d item order differs", i)
			}
		}
	}
}

func TestComposeEmptyCandidates(t *testing.T) {
	c := fixtureCatalog()
	plans, err := Compose(nil, c, defaultProfile(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 0 {
		t.Errorf("empty candidates should yield empty plans, got %d", len(plans))
	}
}

func TestComposeInvalidProfile(t *testing.T) {
	c := fixtureCatalog()
	p := defaultProfile()
	p.MaxBudget = -1

	_, err := Compose(allIDs(c), c, p, 10)
	if err == nil {
		t.Fatal("want error for invalid profile")
	}
	if !core.IsInvalidInput(err) {
		t.Errorf("want INVALID_INPUT, got %v", err)
	}
}

func TestComposeRespectsK(t *testing.T) {
	c := fixtureCatalog()
	plans, err := Compose(allIDs(c), c, defaultProfile(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) > 2 {
		t.Errorf("want at most 2 plans, got %d", len(plans))
	}
}

func TestComposeExhaustedPoolKeepsShortPlans(t *testing.T) {
	// 两个候选在第一轮就组成双活动行程，第二轮再无可加活动。
	// 扩展断档时保留上一轮行程：小候选池产出短行程而不是空结果。
	c := fixtureCatalog()
	plans, err := Compose([]string{"A", "B"}, c, defaultProfile(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 {
		t.Fatalf("want exactly one deduped plan from a 2-item pool, got %d", len(plans))
	}
	if len(plans[0].Items) != 2 {
		t.Errorf("want the 2-item plan to survive pool exhaustion, got %d items", len(plans[0].Items))
	}
}

func TestComposeWithBackoffRelaxesBudget(t *testing.T) {
	items := []catalog.Item{
		{ID: "A", Tags: []string{"reef"}, Price: 60, DurationHr: 2, FamilyFriendly: true},
		{ID: "B", Tags: []string{"museum"}, Price: 55, DurationHr: 1, FamilyFriendly: true},
	}
	c := catalog.New(items, nil)

	// 预算 100 放不下两个活动（115），放宽 20% 到 120 就可以
	p := core.NewTravelProfile()
	p.MaxBudget = 100
	p.MaxHours = 6
	p.MinActivities = 2

	strict, err := Compose([]string{"A", "B"}, c, p, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(strict) != 0 {
		t.Fatalf("strict budget should be infeasible, got %d plans", len(strict))
	}

	plans, used, err := ComposeWithBackoff([]string{"A", "B"}, c, p, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) == 0 {
		t.Fatal("backoff should recover a plan")
	}
	if used.MaxBudget <= p.MaxBudget {
		t.Errorf("relaxed profile should carry the widened budget, got %v", used.MaxBudget)
	}
	// 原画像不被修改
	if p.MaxBudget != 100 {
		t.Errorf("caller profile mutated: %v", p.MaxBudget)
	}
}

func TestComposeWithBackoffLowersMinActivities(t *testing.T) {
	items := []catalog.Item{
		{ID: "A", Tags: []string{"reef"}, Price: 90, DurationHr: 2, FamilyFriendly: true},
		{ID: "B", Tags: []string{"museum"}, Price: 90, DurationHr: 2, FamilyFriendly: true},
	}
	c := catalog.New(items, nil)

	// 两个活动 180 超出 100 甚至 120 的预算，只有降 min_activities 才有解
	p := core.NewTravelProfile()
	p.MaxBudget = 100
	p.MaxHours = 6
	p.MinActivities = 2

	plans, used, err := ComposeWithBackoff([]string{"A", "B"}, c, p, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) == 0 {
		t.Fatal("lowering min_activities should recover a single-item plan")
	}
	if used.MinActivities != 1 {
		t.Errorf("want relaxed min_activities 1, got %d", used.MinActivities)
	}
	for _, plan := range plans {
		if len(plan.Items) < 1 {
			t.Error("plan must still hold at least one activity")
		}
	}
}
