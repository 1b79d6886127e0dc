// Package service 提供开箱即用的推荐/行程编排服务门面。
//
// RecoService 把目录快照、内容索引、协同索引与融合排序器装配在一起，
// 对外暴露单次调用的 Recommend / PlanTrip。索引在构造时整体重建；
// 目录变化时由调用方重新 NewRecoService 并原子替换引用（建好的服务
// 可被任意多并发读者共享，单次调用内不产生共享可变状态）。
package service

import (
	"context"
	"math"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/planner"
	"github.com/rushteam/tripkit/rank"
	"github.com/rushteam/tripkit/recall"
)

const (
	// poolSize 是每路信号的召回池大小
	poolSize = 100

	// 融合权重缺省值（内容 0.6 / 协同 0.4）
	defaultAlpha = 0.6
	defaultBeta  = 0.4

	defaultTopK = 10
)

// RecoService 是推荐服务：信号选择、归一化、融合与多样化排序的编排者。
type RecoService struct {
	Catalog *catalog.Catalog
	Content *recall.ContentIndex
	Collab  *recall.CollabIndex
}

// NewRecoService 在目录快照上构建服务（两个索引整体重建）。
func NewRecoService(c *catalog.Catalog) *RecoService {
	return &RecoService{
		Catalog: c,
		Content: recall.NewContentIndex(c),
		Collab:  recall.NewCollabIndex(c),
	}
}

// RecommendRequest 是一次推荐请求。
//
// 信号选择次序：SeedItemID > QueryText > 全局热度回退；
// 协同信号在 UserID 非空时恒参与。Alpha/Beta 同时为零视为未设置，
// 使用缺省 0.6/0.4。
type RecommendRequest struct {
	UserID     string
	SeedItemID string
	QueryText  string

	Alpha float64
	Beta  float64

	// TopK 返回条数，<= 0 时默认 10
	TopK int

	// BlockedIDs 政策屏蔽列表，命中的活动绝不出现在结果里
	BlockedIDs []string
}

// Recommendation 是一条推荐结果，携带两路归一化分（4 位小数）便于解释。
type Recommendation struct {
	ItemID       string
	Title        string
	Tags         []string
	ContentScore float64
	CollabScore  float64
}

// Recommend 执行一次推荐：
//
//	信号选择 -> 两路分数各自 min-max 归一化 -> 候选并集（内容优先、
//	保序去重）-> HybridRanker（屏蔽 + 融合 + MMR 多样化）
//
// 未知种子活动返回 NOT_FOUND；冷启动用户、空目录等一律返回空列表。
func (s *RecoService) Recommend(ctx context.Context, req *RecommendRequest) ([]Recommendation, error) {
	if req == nil {
		req = &RecommendRequest{}
	}

	alpha, beta := req.Alpha, req.Beta
	if alpha == 0 && beta == 0 {
		alpha, beta = defaultAlpha, defaultBeta
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	// 1. 内容信号：种子相似 > 文本相似 > 热度回退
	var (
		contentScored []recall.ScoredItem
		err           error
	)
	switch {
	case req.SeedItemID != "":
		contentScored, err = s.Content.SimilarItem(req.SeedItemID, poolSize)
		if err != nil {
			return nil, err
		}
	case req.QueryText != "":
		contentScored = s.Content.SimilarText(req.QueryText, poolSize)
	default:
		contentScored = recall.PopularityRank(s.Catalog, poolSize)
	}

	// 2. 协同信号：有用户即查，无交互历史（冷启动）得到空列表
	var collabScored []recall.ScoredItem
	if req.UserID != "" {
		collabScored = s.Collab.ForUser(req.UserID, poolSize)
	}

	// 3. 两路各自归一化到 [0,1]（全相等时归为 0）
	contentNorm := rank.MinMax01(scoreMap(contentScored))
	collabNorm := rank.MinMax01(scoreMap(collabScored))

	// 4. 候选并集：内容在前，保序去重
	candidates := make([]string, 0, len(contentScored)+len(collabScored))
	seen := make(map[string]struct{}, len(contentScored)+len(collabScored))
	for _, sc := range contentScored {
		if _, ok := seen[sc.ID]; ok {
			continue
		}
		seen[sc.ID] = struct{}{}
		candidates = append(candidates, sc.ID)
	}
	for _, sc := range collabScored {
		if _, ok := seen[sc.ID]; ok {
			continue
		}
		seen[sc.ID] = struct{}{}
		candidates = append(candidates, sc.ID)
	}

	// 5. 屏蔽 + 融合 + MMR
	ranker := rank.NewHybridRanker(s.Catalog, alpha, beta)
	picked := ranker.Rank(candidates, contentNorm, collabNorm, rank.NewBlockedIDs(req.BlockedIDs...), topK)

	out := make([]Recommendation, 0, len(picked))
	for _, id := range picked {
		it, ok := s.Catalog.ItemByID(id)
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			ItemID:       id,
			Title:        it.Title,
			Tags:         it.Tags,
			ContentScore: round4(contentNorm[id]),
			CollabScore:  round4(collabNorm[id]),
		})
	}
	return out, nil
}

// EnsureCandidates 保证编排器有充足的活动可选：推荐结果在前、保序去重，
// 再无条件并入"政策合格"的目录兜底（有热度的按热度降序，零交互的按目录
// 顺序补齐）。推荐结果过少时编排器不应只能在小池子里打转。
func (s *RecoService) EnsureCandidates(candidates []string, profile *core.TravelProfile) []string {
	familyOnly, avoidNight := false, false
	if profile != nil {
		familyOnly, avoidNight = profile.FamilyFriendly, profile.AvoidNightlife
	}
	fallback := s.Catalog.PolicyEligible(familyOnly, avoidNight)
	eligible := make(map[string]struct{}, len(fallback))
	for _, id := range fallback {
		eligible[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates)+len(fallback))
	out := make([]string, 0, len(candidates)+len(fallback))
	push := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range candidates {
		push(id)
	}
	for _, scored := range recall.PopularityRank(s.Catalog, 0) {
		if _, ok := eligible[scored.ID]; ok {
			push(scored.ID)
		}
	}
	for _, id := range fallback {
		push(id)
	}
	return out
}

// PlanTrip 是推荐 -> 候选兜底 -> 带放宽的行程编排的一站式编排。
// 返回行程列表与实际生效的画像（可能被放宽）。
func (s *RecoService) PlanTrip(
	ctx context.Context,
	req *RecommendRequest,
	profile *core.TravelProfile,
	planCount int,
) ([]planner.Plan, *core.TravelProfile, error) {
	recs, err := s.Recommend(ctx, req)
	if err != nil {
		return nil, profile, err
	}

	candidates := make([]string, 0, len(recs))
	for _, r := range recs {
		candidates = append(candidates, r.ItemID)
	}
	candidates = s.EnsureCandidates(candidates, profile)

	return planner.ComposeWithBackoff(candidates, s.Catalog, profile, planCount)
}

func scoreMap(scored []recall.ScoredItem) map[string]float64 {
	m := make(map[string]float64, len(scored))
	for _, sc := range scored {
		m[sc.ID] = sc.Score
	}
	return m
}

// round4 保留 4 位小数，仅用于输出展示，不影响排序。
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
