// Package feature 提供在线特征到领域模型的组装。
package feature

import (
	"context"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/feast"
	"github.com/rushteam/tripkit/pkg/conv"
)

// 旅行画像在 Feast 里的特征名（feature view: traveler_profile）
const (
	FeatMaxBudget      = "traveler_profile:max_budget"
	FeatMaxHours       = "traveler_profile:max_hours"
	FeatMinActivities  = "traveler_profile:min_activities"
	FeatFamilyFriendly = "traveler_profile:family_friendly"
	FeatAvoidNightlife = "traveler_profile:avoid_nightlife"
	FeatPreferTags     = "traveler_profile:prefer_tags"
)

// EntityTravelerID 是画像特征的实体键名。
const EntityTravelerID = "traveler_id"

// ProfileLoader 从 Feast 在线存储拉取旅行画像特征并组装 core.TravelProfile。
//
// 任一特征缺失时用 core.NewTravelProfile 的缺省值补齐；整行拉取失败时
// 返回错误，调用方可以降级为纯缺省画像。
type ProfileLoader struct {
	Client  feast.Client
	Project string
}

func NewProfileLoader(client feast.Client, project string) *ProfileLoader {
	return &ProfileLoader{Client: client, Project: project}
}

// Load 拉取单个用户的旅行画像。
func (l *ProfileLoader) Load(ctx context.Context, userID string) (*core.TravelProfile, error) {
	if l.Client == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, "feast client not configured")
	}
	if userID == "" {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "user id is empty")
	}

	resp, err := l.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features: []string{
			FeatMaxBudget,
			FeatMaxHours,
			FeatMinActivities,
			FeatFamilyFriendly,
			FeatAvoidNightlife,
			FeatPreferTags,
		},
		EntityRows: []map[string]interface{}{
			{EntityTravelerID: userID},
		},
		Project: l.Project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable, err.Error())
	}
	if len(resp.FeatureVectors) == 0 {
		return core.NewTravelProfile(), nil
	}

	return hydrate(resp.FeatureVectors[0].Values), nil
}

// hydrate 把特征值映射进画像，缺失特征保持缺省值。
func hydrate(values map[string]interface{}) *core.TravelProfile {
	p := core.NewTravelProfile()

	if v, ok := values[FeatMaxBudget]; ok {
		if f, ok := conv.ToFloat64(v); ok && f > 0 {
			p.MaxBudget = f
		}
	}
	if v, ok := values[FeatMaxHours]; ok {
		if f, ok := conv.ToFloat64(v); ok && f > 0 {
			p.MaxHours = f
		}
	}
	if v, ok := values[FeatMinActivities]; ok {
		if f, ok := conv.ToFloat64(v); ok && f >= 1 {
			p.MinActivities = int(f)
		}
	}
	if v, ok := values[FeatFamilyFriendly]; ok {
		if b, ok := v.(bool); ok {
			p.FamilyFriendly = b
		}
	}
	if v, ok := values[FeatAvoidNightlife]; ok {
		if b, ok := v.(bool); ok {
			p.AvoidNightlife = b
		}
	}
	if v, ok := values[FeatPreferTags]; ok {
		if s, ok := v.(string); ok && s != "" {
			p.PreferTags = catalog.ParseTags(s)
		}
	}
	return p
}
