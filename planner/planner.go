// Package planner 是带硬约束的行程编排器：在候选活动集合上做 Beam Search，
// 产出满足预算/时长/政策约束、兼顾偏好与标签多样性的多活动行程。
//
// 编排器是纯函数：输入 (candidates, catalog, profile, k)，不持有任何跨请求
// 状态；同样的输入恒产出同样的输出。无可行行程时返回空列表而不是错误——
// 约束放宽（backoff）是调用方的策略，见 ComposeWithBackoff。
package planner

import (
	"sort"
	"strings"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
)

const (
	seedLimit    = 20 // 种子 beam 数：按单活动分取前 20
	beamWidth    = 30 // 每轮扩展后全局保留的 beam 数（跨所有父 beam 全局截断）
	expandRounds = 3  // 扩展轮数：行程最多 1 + 3 = 4 个活动

	priceWeight      = 0.7  // 单活动分中价格亲和项的权重
	tagWeight        = 0.3  // 单活动分中偏好标签项的权重
	tagMatchCap      = 3.0  // 偏好标签命中数按 /3 折算（3 个命中拿满）
	redundancyWeight = 0.25 // 扩展时标签重合的冗余惩罚系数
)

// Plan 是一条编排产出的行程：有序活动列表与派生汇总。
type Plan struct {
	Items      []catalog.Item
	TotalCost  float64
	TotalHours float64
	Score      float64
}

// ScoreItem 计算单活动的基础分：
//
//	0.7 * 价格亲和 + 0.3 * 偏好标签命中
//
// 价格亲和 = 1/(1+price)，越便宜越高，有界于 (0,1]；
// 标签项 = |prefer ∩ tags| / 3，最多 3 个命中计满。
func ScoreItem(it catalog.Item, prefer map[string]struct{}) float64 {
	priceTerm := 1.0 / (1.0 + it.Price)

	hits := 0
	for _, t := range it.Tags {
		if _, ok := prefer[t]; ok {
			hits++
		}
	}
	return priceWeight*priceTerm + tagWeight*(float64(hits)/tagMatchCap)
}

// Feasible 判断一组活动是否满足画像的全部硬约束：
// 总价 <= MaxBudget、总时长 <= MaxHours、政策开关对每个活动成立。
func Feasible(items []catalog.Item, p *core.TravelProfile) bool {
	var cost, hours float64
	for _, it := range items {
		cost += it.Price
		hours += it.DurationHr
		if p.FamilyFriendly && !it.FamilyFriendly {
			return false
		}
		if p.AvoidNightlife && it.Nightlife {
			return false
		}
	}
	return cost <= p.MaxBudget && hours <= p.MaxHours
}

// beamEntry 是搜索状态：已选活动、去重集合、标签并集与累计量。
type beamEntry struct {
	items []catalog.Item
	used  map[string]struct{}
	tags  map[string]struct{}
	cost  float64
	hours float64
	score float64
}

// Compose 在候选集合上做 Beam Search，返回至多 k 条按分数降序的可行行程。
//
// 流程：
//  1. 候选按单活动基础分降序，取前 20 个、逐个检查可行性作为种子 beam
//  2. 固定扩展 3 轮：每轮对每个 beam 尝试加入每个未用候选，不可行立即丢弃
//     （不打分、不扩展）；可行扩展的分数 = 原分 + 新活动基础分 - 冗余惩罚，
//     冗余惩罚 = 0.25 * jaccard(行程标签并集, 新活动标签)。
//     全部扩展合并后按分数全局截断到 30（跨父 beam，不是每父各留 N）；
//     某轮无任何扩展存活则提前结束，保留上一轮的行程——候选池耗尽时
//     仍产出较短的可行行程，MinActivities 的放宽策略才有意义
//  3. 结果侧过滤：活动数 >= MinActivities；按活动 ID 集合（与顺序无关）
//     去重，分数高者先见先得；降序取前 k
//
// 空候选或无可行行程返回空列表；画像非法返回 INVALID_INPUT 错误。
func Compose(candidates []string, c *catalog.Catalog, profile *core.TravelProfile, k int) ([]Plan, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 10
	}
	if c == nil || len(candidates) == 0 {
		return []Plan{}, nil
	}

	// 解析候选（忽略未知 ID，保持顺序，去重）
	pool := make([]catalog.Item, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		if _, ok := seen[id]; ok {
			continue
		}
		it, ok := c.ItemByID(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		pool = append(pool, it)
	}
	if len(pool) == 0 {
		return []Plan{}, nil
	}

	prefer := profile.PreferTagSet()
	base := make(map[string]float64, len(pool))
	for _, it := range pool {
		base[it.ID] = ScoreItem(it, prefer)
	}

	// 1. 种子：基础分前 20，逐个可行性检查
	order := make([]catalog.Item, len(pool))
	copy(order, pool)
	sort.SliceStable(order, func(i, j int) bool {
		return base[order[i].ID] > base[order[j].ID]
	})
	if len(order) > seedLimit {
		order = order[:seedLimit]
	}

	beams := make([]beamEntry, 0, len(order))
	for _, it := range order {
		if !Feasible([]catalog.Item{it}, profile) {
			continue
		}
		beams = append(beams, beamEntry{
			items: []catalog.Item{it},
			used:  map[string]struct{}{it.ID: {}},
			tags:  it.TagSet(),
			cost:  it.Price,
			hours: it.DurationHr,
			score: base[it.ID],
		})
	}

	// 2. 固定轮数扩展，全局 beam 截断
	for round := 0; round < expandRounds; round++ {
		next := make([]beamEntry, 0, len(beams)*len(pool))
		for _, entry := range beams {
			for _, cand := range pool {
				if _, ok := entry.used[cand.ID]; ok {
					continue
				}
				if !extendFeasible(entry, cand, profile) {
					continue
				}
				next = append(next, extend(entry, cand, base[cand.ID]))
			}
		}
		sort.SliceStable(next, func(i, j int) bool {
			return next[i].score > next[j].score
		})
		if len(next) > beamWidth {
			next = next[:beamWidth]
		}
		// 无扩展存活时保留上一轮行程，耗尽的小候选池仍能产出短行程
		if len(next) == 0 {
			break
		}
		beams = next
	}

	// 3. 结果侧过滤、集合去重、降序取 k
	sort.SliceStable(beams, func(i, j int) bool {
		return beams[i].score > beams[j].score
	})

	dedup := make(map[string]struct{}, len(beams))
	plans := make([]Plan, 0, k)
	for _, entry := range beams {
		if len(entry.items) < profile.MinActivities {
			continue
		}
		key := planKey(entry.items)
		if _, ok := dedup[key]; ok {
			continue
		}
		dedup[key] = struct{}{}
		plans = append(plans, Plan{
			Items:      entry.items,
			TotalCost:  entry.cost,
			TotalHours: entry.hours,
			Score:      entry.score,
		})
		if len(plans) == k {
			break
		}
	}
	return plans, nil
}

// extendFeasible 增量检查扩展可行性：已有活动均已通过政策检查，
// 只需检查新活动的政策与扩展后的累计约束。
func extendFeasible(entry beamEntry, cand catalog.Item, p *core.TravelProfile) bool {
	if p.FamilyFriendly && !cand.FamilyFriendly {
		return false
	}
	if p.AvoidNightlife && cand.Nightlife {
		return false
	}
	return entry.cost+cand.Price <= p.MaxBudget && entry.hours+cand.DurationHr <= p.MaxHours
}

// extend 构造扩展后的 beam 状态。
func extend(entry beamEntry, cand catalog.Item, candBase float64) beamEntry {
	items := make([]catalog.Item, 0, len(entry.items)+1)
	items = append(items, entry.items...)
	items = append(items, cand)

	used := make(map[string]struct{}, len(entry.used)+1)
	for id := range entry.used {
		used[id] = struct{}{}
	}
	used[cand.ID] = struct{}{}

	candTags := cand.TagSet()
	penalty := redundancyPenalty(entry.tags, candTags)

	tags := make(map[string]struct{}, len(entry.tags)+len(candTags))
	for t := range entry.tags {
		tags[t] = struct{}{}
	}
	for t := range candTags {
		tags[t] = struct{}{}
	}

	return beamEntry{
		items: items,
		used:  used,
		tags:  tags,
		cost:  entry.cost + cand.Price,
		hours: entry.hours + cand.DurationHr,
		score: entry.score + candBase - penalty,
	}
}

// redundancyPenalty = 0.25 * jaccard(行程标签并集, 新活动标签)；
// 任一方为空集时不惩罚。
func redundancyPenalty(planTags, candTags map[string]struct{}) float64 {
	if len(planTags) == 0 || len(candTags) == 0 {
		return 0
	}
	inter := 0
	for t := range candTags {
		if _, ok := planTags[t]; ok {
			inter++
		}
	}
	union := len(planTags) + len(candTags) - inter
	if union == 0 {
		return 0
	}
	return redundancyWeight * float64(inter) / float64(union)
}

// planKey 生成与顺序无关的行程去重键。
func planKey(items []catalog.Item) string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
