package core

// TravelProfile 是行程编排的用户画像：预算/时长上限、政策开关、偏好标签。
//
// 它是按请求构造的值对象：
//   - 构造后不再修改（编排器是纯函数，不持有跨请求状态）
//   - 约束是硬性的：超预算/超时长/违反政策的行程直接丢弃
//   - PreferTags 只影响打分（软偏好），不影响可行性
type TravelProfile struct {
	MaxBudget      float64  // 总价上限
	MaxHours       float64  // 总时长上限（小时）
	MinActivities  int      // 行程最少活动数（结果侧过滤）
	FamilyFriendly bool     // 开启后，行程内所有活动必须适合家庭
	AvoidNightlife bool     // 开启后，行程内不允许夜生活类活动
	PreferTags     []string // 偏好标签（无序集合语义）
}

// NewTravelProfile 返回带默认约束的画像（预算 300 / 12 小时 / 至少 2 个活动）。
func NewTravelProfile() *TravelProfile {
	return &TravelProfile{
		MaxBudget:     300,
		MaxHours:      12,
		MinActivities: 2,
	}
}

// Validate 校验画像合法性：预算/时长/最少活动数必须为正。
func (p *TravelProfile) Validate() error {
	if p == nil {
		return NewDomainError(ModulePlanner, ErrorCodeInvalidInput, "profile is nil")
	}
	if p.MaxBudget <= 0 {
		return NewDomainError(ModulePlanner, ErrorCodeInvalidInput, "max_budget must be positive")
	}
	if p.MaxHours <= 0 {
		return NewDomainError(ModulePlanner, ErrorCodeInvalidInput, "max_hours must be positive")
	}
	if p.MinActivities <= 0 {
		return NewDomainError(ModulePlanner, ErrorCodeInvalidInput, "min_activities must be positive")
	}
	return nil
}

// PreferTagSet 将偏好标签转为集合形式，供打分时做交集计算。
func (p *TravelProfile) PreferTagSet() map[string]struct{} {
	if p == nil || len(p.PreferTags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(p.PreferTags))
	for _, t := range p.PreferTags {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// Clone 返回画像副本，供回退策略在不污染原画像的前提下放宽约束。
func (p *TravelProfile) Clone() *TravelProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.PreferTags != nil {
		cp.PreferTags = append([]string(nil), p.PreferTags...)
	}
	return &cp
}
