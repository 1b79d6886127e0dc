package planner

import (
	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
)

// budgetBackoffFactor 是预算放宽步长：+20%。
const budgetBackoffFactor = 1.2

// ComposeWithBackoff 是调用方侧的约束放宽策略：Compose 本身是画像的
// 纯函数、从不自行放宽；这里按固定顺序逐步松绑并重试，直到拿到行程
// 或放宽手段用尽。
//
// 放宽顺序：
//  1. 原画像直接编排
//  2. 预算放宽 20%
//  3. 最少活动数减 1（下限 1）
//
// 返回产出行程的画像（或最后一次尝试的画像），便于调用方向用户解释
// "结果是在放宽后的约束下产生的"。
func ComposeWithBackoff(
	candidates []string,
	c *catalog.Catalog,
	profile *core.TravelProfile,
	k int,
) ([]Plan, *core.TravelProfile, error) {
	plans, err := Compose(candidates, c, profile, k)
	if err != nil || len(plans) > 0 {
		return plans, profile, err
	}

	relaxed := profile.Clone()
	relaxed.MaxBudget = profile.MaxBudget * budgetBackoffFactor
	plans, err = Compose(candidates, c, relaxed, k)
	if err != nil || len(plans) > 0 {
		return plans, relaxed, err
	}

	if relaxed.MinActivities > 1 {
		relaxed = relaxed.Clone()
		relaxed.MinActivities--
		plans, err = Compose(candidates, c, relaxed, k)
	}
	return plans, relaxed, err
}
