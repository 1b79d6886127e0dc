package core

import "github.com/rushteam/tripkit/pkg/utils"

// SignalKind 标记内容信号的来源变体。
type SignalKind string

const (
	SignalSeedItem SignalKind = "seed_item" // 以某个物品为种子找相似
	SignalFreeText SignalKind = "free_text" // 自由文本查询
	SignalNone     SignalKind = "none"      // 无输入，回退到热门（按交互权重求和）
)

// QuerySignal 是内容信号的 tagged variant：SeedItem(id) | FreeText(text) | None。
// 在融合入口一次性分发，避免散落的 optional 参数判断。
type QuerySignal struct {
	Kind       SignalKind
	SeedItemID string
	Text       string
}

func SeedItemSignal(itemID string) QuerySignal {
	return QuerySignal{Kind: SignalSeedItem, SeedItemID: itemID}
}

func FreeTextSignal(text string) QuerySignal {
	return QuerySignal{Kind: SignalFreeText, Text: text}
}

func NoSignal() QuerySignal {
	return QuerySignal{Kind: SignalNone}
}

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string

	// Signal 决定内容信号从哪里来（种子物品 / 文本查询 / 热门回退）
	Signal QuerySignal

	// Profile 是旅行画像（预算/时长/政策/偏好标签），驱动过滤与行程编排
	Profile *TravelProfile

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（alpha/beta/top_k/blocked_ids 等）
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
