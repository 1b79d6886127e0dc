// Package rerank 提供排序结果上的重排节点：MMR 多样化与 TopN 截断。
package rerank

import (
	"context"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// MMRNode 是基于标签 Jaccard 的 MMR（Maximal Marginal Relevance）多样化重排。
//
// 对已按相关性打分的 items 做贪心选择：首选分数最高者，此后每轮取
// Lambda*score - (1-Lambda)*max(与已选集合的标签 Jaccard) 的最大者。
// 标签来源：item.Meta["tags"]。
type MMRNode struct {
	// Lambda 相关性/多样性权衡系数，<= 0 时默认 0.7
	Lambda float64

	// N 选出的物品数量，<= 0 表示全量重排
	N int
}

func (n *MMRNode) Name() string        { return "rerank.mmr" }
func (n *MMRNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *MMRNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	lambda := n.Lambda
	if lambda <= 0 {
		lambda = 0.7
	}
	limit := n.N
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	pool := make([]*core.Item, 0, len(items))
	tags := make(map[string]map[string]struct{}, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		pool = append(pool, it)
		tags[it.ID] = it.TagSet()
	}

	out := make([]*core.Item, 0, limit)
	maxRed := make(map[string]float64, len(pool))

	for len(out) < limit && len(pool) > 0 {
		bestIdx := -1
		var bestScore float64
		for i, it := range pool {
			score := it.Score
			if len(out) > 0 {
				score = lambda*it.Score - (1-lambda)*maxRed[it.ID]
			}
			if bestIdx < 0 || score > bestScore {
				bestIdx, bestScore = i, score
			}
		}

		chosen := pool[bestIdx]
		chosen.PutLabel("rerank_mmr", utils.Label{Value: "picked", Source: "rerank"})
		out = append(out, chosen)
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)

		chosenTags := tags[chosen.ID]
		for _, it := range pool {
			if red := jaccard(tags[it.ID], chosenTags); red > maxRed[it.ID] {
				maxRed[it.ID] = red
			}
		}
	}
	return out, nil
}

// jaccard 计算两个标签集合的 Jaccard 相似度；双方皆空时为 0。
func jaccard(a, b map[string]struct{}) float64 {
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
