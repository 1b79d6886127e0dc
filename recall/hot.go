package recall

import (
	"context"
	"sort"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// Hot 是热门召回源：按交互权重求和的全局热度排序。
// 没有种子活动、没有查询文本、没有用户历史时，它是唯一可用的信号。
//
// - 如果配置了 Store + Key，优先从有序集合读取离线任务写入的热度榜
// - 否则从目录快照的交互表现算热度
//
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Hot struct {
	Catalog *catalog.Catalog

	// Store/Key 可选：从外部存储读取热度榜（例如 Redis zset "hot:activities"）
	Store core.KeyValueStore
	Key   string

	// TopK 返回 TopK 个活动，<= 0 时默认 100
	TopK int
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	scored := r.fromStore(ctx, topK)
	if scored == nil {
		scored = PopularityRank(r.Catalog, topK)
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutFeature("content_score", s.Score) // 热度充当内容侧信号的回退
		fillMeta(it, r.Catalog)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// fromStore 从有序集合读取热度榜；Store 未配置或读取失败时返回 nil。
func (r *Hot) fromStore(ctx context.Context, topK int) []ScoredItem {
	if r.Store == nil || r.Key == "" {
		return nil
	}
	members, err := r.Store.ZRange(ctx, r.Key, 0, int64(topK)-1)
	if err != nil || len(members) == 0 {
		return nil
	}
	out := make([]ScoredItem, 0, len(members))
	for _, m := range members {
		score, err := r.Store.ZScore(ctx, r.Key, m)
		if err != nil {
			score = 0
		}
		out = append(out, ScoredItem{ID: m, Score: score})
	}
	return out
}

// PopularityRank 按交互权重求和计算全局热度并降序排序（同分按 ID 升序，保证确定性）。
func PopularityRank(c *catalog.Catalog, k int) []ScoredItem {
	if c == nil {
		return nil
	}
	pop := c.Popularity()
	out := make([]ScoredItem, 0, len(pop))
	for id, w := range pop {
		out = append(out, ScoredItem{ID: id, Score: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
