package recall

import (
	"context"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
)

// Source 表示一个可复用的召回源（内容相似/协同相似/热门/...）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// ScoredItem 是索引查询的原始结果：活动 ID 与未归一化的相似度/分数。
type ScoredItem struct {
	ID    string
	Score float64
}

// fillMeta 将目录元信息写入 pipeline Item，供下游过滤/多样性计算使用。
func fillMeta(it *core.Item, cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	src, ok := cat.ItemByID(it.ID)
	if !ok {
		return
	}
	it.Meta["title"] = src.Title
	it.Meta["tags"] = src.Tags
	it.Meta["price"] = src.Price
	it.Meta["duration_hr"] = src.DurationHr
	it.Meta["family_friendly"] = src.FamilyFriendly
	it.Meta["nightlife"] = src.Nightlife
}
