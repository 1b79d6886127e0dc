package filter

import (
	"context"

	"github.com/rushteam/tripkit/core"
)

// PolicyFilter 按画像的政策开关过滤活动：
//   - FamilyFriendly 开启时，剔除不适合家庭的活动
//   - AvoidNightlife 开启时，剔除夜生活类活动
//
// 政策开关优先从 rctx.Profile 读取；Profile 为空时使用过滤器自身的开关。
// 活动标志从 item.Meta（召回阶段由 fillMeta 写入）读取。
type PolicyFilter struct {
	FamilyFriendly bool
	AvoidNightlife bool
}

func (f *PolicyFilter) Name() string {
	return "filter.policy"
}

func (f *PolicyFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	familyOnly, avoidNight := f.FamilyFriendly, f.AvoidNightlife
	if rctx != nil && rctx.Profile != nil {
		familyOnly = familyOnly || rctx.Profile.FamilyFriendly
		avoidNight = avoidNight || rctx.Profile.AvoidNightlife
	}

	if familyOnly && !metaBool(item, "family_friendly") {
		return true, nil
	}
	if avoidNight && metaBool(item, "nightlife") {
		return true, nil
	}
	return false, nil
}

func metaBool(item *core.Item, key string) bool {
	if item.Meta == nil {
		return false
	}
	v, ok := item.Meta[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
