package core

import "github.com/rushteam/tripkit/pkg/utils"

// Item 是推荐链路中的统一承载结构：分数、特征、元信息、标签。
// 对旅行场景，Meta 通常携带 title/tags/price/duration_hr/family_friendly/nightlife，
// Features 携带各召回源的原始分（如 content_score / collab_score），Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutFeature 写入特征值（Features 为 nil 时惰性初始化）。
func (it *Item) PutFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// TagSet 从 Meta["tags"] 取标签集合，供多样性/冗余计算使用。
// 兼容 []string 与 []any 两种形态（后者来自 YAML/JSON 配置）。
func (it *Item) TagSet() map[string]struct{} {
	if it.Meta == nil {
		return nil
	}
	raw, ok := it.Meta["tags"]
	if !ok {
		return nil
	}
	out := make(map[string]struct{})
	switch tags := raw.(type) {
	case []string:
		for _, t := range tags {
			out[t] = struct{}{}
		}
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out[s] = struct{}{}
			}
		}
	}
	return out
}
