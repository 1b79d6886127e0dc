// Package rank 提供双信号融合排序：内容相似分与协同相似分各自做
// min-max 归一化后线性加权，再用 MMR（Maximal Marginal Relevance）
// 在相关性与标签多样性之间做贪心权衡。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// MinMax01 将分数 map 按请求归一化到 [0,1]。
// 全部相等时统一归为 0.0（避免除零，也避免把"无区分度"放大成满分）。
func MinMax01(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return map[string]float64{}
	}

	first := true
	var vmin, vmax float64
	for _, v := range scores {
		if first {
			vmin, vmax = v, v
			first = false
			continue
		}
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}

	out := make(map[string]float64, len(scores))
	if vmax <= vmin {
		for k := range scores {
			out[k] = 0.0
		}
		return out
	}
	rng := vmax - vmin
	for k, v := range scores {
		n := (v - vmin) / rng
		if n < 0 {
			n = 0
		}
		out[k] = n
	}
	return out
}

// Guard 是排序前的政策屏蔽：被 Blocked 的活动不进入候选池。
type Guard interface {
	Blocked(id string) bool
}

// BlockedIDs 是最简单的 Guard 实现：内存中的被屏蔽 ID 集合。
type BlockedIDs map[string]struct{}

func NewBlockedIDs(ids ...string) BlockedIDs {
	set := make(BlockedIDs, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (b BlockedIDs) Blocked(id string) bool {
	_, ok := b[id]
	return ok
}

// HybridRanker 是双信号融合 + MMR 多样化选择器。
//
// 算法：
//  1. 候选先过 Guard（政策屏蔽）
//  2. fused[i] = Alpha*content[i] + Beta*collab[i]，缺失信号按 0
//     ——只有协同分没有内容分的活动依然有资格胜出
//  3. 贪心 MMR：首选 fused 最高者；此后每轮对剩余候选计算
//     Lambda*fused[i] - (1-Lambda)*max_j(tagJaccard(i, j))（j 遍历已选），
//     取最大者，直到选满 k 或候选耗尽
//
// 纯相关性排序会把同标签的近重复活动堆在一起；冗余惩罚用可控的
// 相关性损失换取标签覆盖面。
type HybridRanker struct {
	Alpha float64 // 内容信号权重
	Beta  float64 // 协同信号权重

	// Lambda 是 MMR 的相关性/多样性权衡系数，<= 0 时默认 0.7
	Lambda float64

	// Tags 是活动 ID -> 标签集合，冗余惩罚按 tag Jaccard 计算
	Tags map[string]map[string]struct{}
}

// NewHybridRanker 从目录快照构造融合排序器（预提取标签集合）。
func NewHybridRanker(c *catalog.Catalog, alpha, beta float64) *HybridRanker {
	tags := make(map[string]map[string]struct{}, c.Len())
	for _, it := range c.Items {
		tags[it.ID] = it.TagSet()
	}
	return &HybridRanker{Alpha: alpha, Beta: beta, Tags: tags}
}

// Rank 返回至多 k 个活动 ID，按"融合相关性 - 冗余惩罚"的贪心次序。
// guard 为 nil 时不做屏蔽。
func (r *HybridRanker) Rank(
	candidates []string,
	contentScores map[string]float64,
	collabScores map[string]float64,
	guard Guard,
	k int,
) []string {
	lambda := r.Lambda
	if lambda <= 0 {
		lambda = 0.7
	}

	// 1. 政策屏蔽 + 融合打分（保持候选顺序，保证平分时的确定性）
	pool := make([]string, 0, len(candidates))
	fused := make(map[string]float64, len(candidates))
	for _, id := range candidates {
		if guard != nil && guard.Blocked(id) {
			continue
		}
		if _, ok := fused[id]; ok {
			continue
		}
		pool = append(pool, id)
		fused[id] = r.Alpha*contentScores[id] + r.Beta*collabScores[id]
	}

	if k <= 0 || k > len(pool) {
		k = len(pool)
	}

	// 2. 贪心 MMR：maxRed 记录每个剩余候选与已选集合的最大标签重合，
	//    每轮只需用新选中者增量更新，避免全量重算
	picked := make([]string, 0, k)
	maxRed := make(map[string]float64, len(pool))

	for len(picked) < k && len(pool) > 0 {
		bestIdx := -1
		var bestScore float64
		for i, id := range pool {
			score := fused[id]
			if len(picked) > 0 {
				score = lambda*fused[id] - (1-lambda)*maxRed[id]
			}
			if bestIdx < 0 || score > bestScore {
				bestIdx, bestScore = i, score
			}
		}

		chosen := pool[bestIdx]
		picked = append(picked, chosen)
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)

		chosenTags := r.Tags[chosen]
		for _, id := range pool {
			if red := tagJaccard(r.Tags[id], chosenTags); red > maxRed[id] {
				maxRed[id] = red
			}
		}
	}
	return picked
}

// tagJaccard 计算两个标签集合的 Jaccard 相似度；双方皆空时为 0。
func tagJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// HybridNode 是融合排序的 Pipeline 形态：从 Features 里取各召回源写入的
// content_score / collab_score，归一化后线性融合为 item.Score 并降序排序。
// 多样化选择交给下游的 rerank.MMRNode（与单独使用 HybridRanker 等价）。
type HybridNode struct {
	Alpha float64
	Beta  float64
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	contentRaw := make(map[string]float64)
	collabRaw := make(map[string]float64)
	for _, it := range items {
		if it == nil {
			continue
		}
		if v, ok := it.Features["content_score"]; ok {
			contentRaw[it.ID] = v
		}
		if v, ok := it.Features["collab_score"]; ok {
			collabRaw[it.ID] = v
		}
	}

	contentNorm := MinMax01(contentRaw)
	collabNorm := MinMax01(collabRaw)

	for _, it := range items {
		if it == nil {
			continue
		}
		it.Score = n.Alpha*contentNorm[it.ID] + n.Beta*collabNorm[it.ID]
		it.PutFeature("content_score_norm", contentNorm[it.ID])
		it.PutFeature("collab_score_norm", collabNorm[it.ID])
		it.PutLabel("rank_fusion", utils.Label{Value: "hybrid", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
