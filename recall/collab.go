package recall

import (
	"context"
	"math"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// epsNorm 防止全零行/列归一化时除零。
const epsNorm = 1e-12

// CollabIndex 是基于交互共现的协同相似索引（Item-CF）。
//
// 核心思想："被同一批用户喜欢的活动，相互相似"——与活动文本无关。
//
// 构建：
//  1. 单趟扫描交互，把权重累加进 活动×用户 矩阵（同一 user/item 多条记录求和）
//  2. 每个用户的列做 L2 归一化（防止单个重度用户主导相似度）
//  3. 活动两两余弦相似得到 活动×活动 矩阵，对角线置零
//     （活动永远不"和自己相似"）
//
// 索引构建后不可变，可被任意多并发读者共享。
type CollabIndex struct {
	items     []string
	itemIndex map[string]int
	users     []string
	userIndex map[string]int

	itemUser [][]float64 // I×U，列归一化后的偏好矩阵
	itemSim  [][]float64 // I×I，余弦相似，对角线为 0
}

// NewCollabIndex 在目录快照上构建协同索引。
func NewCollabIndex(c *catalog.Catalog) *CollabIndex {
	idx := &CollabIndex{
		items:     make([]string, 0, c.Len()),
		itemIndex: make(map[string]int, c.Len()),
		userIndex: make(map[string]int),
	}
	for _, it := range c.Items {
		idx.itemIndex[it.ID] = len(idx.items)
		idx.items = append(idx.items, it.ID)
	}
	for _, inter := range c.Interactions {
		if _, ok := idx.userIndex[inter.UserID]; !ok {
			idx.userIndex[inter.UserID] = len(idx.users)
			idx.users = append(idx.users, inter.UserID)
		}
	}

	ni, nu := len(idx.items), len(idx.users)
	idx.itemUser = make([][]float64, ni)
	for i := range idx.itemUser {
		idx.itemUser[i] = make([]float64, nu)
	}

	// 1. 累加交互权重
	for _, inter := range c.Interactions {
		i, ok := idx.itemIndex[inter.ItemID]
		if !ok {
			continue
		}
		u := idx.userIndex[inter.UserID]
		idx.itemUser[i][u] += inter.Weight
	}

	// 2. 用户列 L2 归一化
	for u := 0; u < nu; u++ {
		var norm float64
		for i := 0; i < ni; i++ {
			norm += idx.itemUser[i][u] * idx.itemUser[i][u]
		}
		norm = math.Sqrt(norm) + epsNorm
		for i := 0; i < ni; i++ {
			idx.itemUser[i][u] /= norm
		}
	}

	// 3. 活动两两余弦相似，对角线置零
	norms := make([]float64, ni)
	for i := 0; i < ni; i++ {
		var n float64
		for u := 0; u < nu; u++ {
			n += idx.itemUser[i][u] * idx.itemUser[i][u]
		}
		norms[i] = math.Sqrt(n) + epsNorm
	}
	idx.itemSim = make([][]float64, ni)
	for i := 0; i < ni; i++ {
		idx.itemSim[i] = make([]float64, ni)
		for j := 0; j < ni; j++ {
			if i == j {
				continue
			}
			var dot float64
			for u := 0; u < nu; u++ {
				dot += idx.itemUser[i][u] * idx.itemUser[j][u]
			}
			idx.itemSim[i][j] = dot / (norms[i] * norms[j])
		}
	}
	return idx
}

// Users 返回交互中出现过的用户列表（构造顺序），供上层展示/遍历。
func (x *CollabIndex) Users() []string {
	return x.users
}

// ForUser 返回"与该用户交互过的活动相似"的活动，按分数降序取 TopK。
// 分数 = 相似度矩阵 · 用户偏好向量（其在 活动×用户 矩阵中的列）。
// 用户没有任何交互历史（冷启动）时返回空列表，不是错误。
func (x *CollabIndex) ForUser(userID string, k int) []ScoredItem {
	u, ok := x.userIndex[userID]
	if !ok {
		return nil
	}

	pref := make([]float64, len(x.items))
	for i := range x.items {
		pref[i] = x.itemUser[i][u]
	}

	out := make([]ScoredItem, 0, len(x.items))
	for i := range x.items {
		var score float64
		for j := range x.items {
			score += x.itemSim[i][j] * pref[j]
		}
		out = append(out, ScoredItem{ID: x.items[i], Score: score})
	}
	return topKScored(out, k)
}

// CollabRecall 是协同相似召回源（i2i）：为有交互历史的用户召回
// "和你互动过的活动相似"的活动。冷启动用户召回为空，不报错。
// 同时实现 Source 与 Node 接口。
type CollabRecall struct {
	Index   *CollabIndex
	Catalog *catalog.Catalog

	// TopK 返回 TopK 个活动，<= 0 时默认 100
	TopK int
}

func (r *CollabRecall) Name() string { return "recall.i2i" }

func (r *CollabRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *CollabRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *CollabRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	scored := r.Index.ForUser(rctx.UserID, topK)
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutFeature("collab_score", s.Score)
		fillMeta(it, r.Catalog)
		it.PutLabel("recall_source", utils.Label{Value: "i2i", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
