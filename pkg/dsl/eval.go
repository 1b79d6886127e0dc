package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/tripkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 用于以表达式形式描述过滤/策略规则，不用改代码就能调整政策。
//
// 表达式语法（CEL 标准语法）：
//   - 政策：item.meta.nightlife == true / item.meta.family_friendly == false
//   - 价格：item.meta.price > 100.0
//   - 标签：label.recall_source.value == "hot"
//   - 画像：rctx.profile.avoid_nightlife == true && item.meta.nightlife == true
//
// 示例（作为 filter.DSLFilter 的规则，返回 true 表示过滤）：
//   - `item.meta.nightlife == true`：剔除夜生活类活动
//   - `item.meta.price > rctx.profile.max_budget`：剔除单价已超预算的活动
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 空表达式视为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误；
		// 规则应使用 label.key != null 检查存在性，而不是直接访问
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	labels := make(map[string]interface{})
	item := map[string]interface{}{}
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = map[string]interface{}{
				"value":  v.Value,
				"source": v.Source,
			}
		}
		item = map[string]interface{}{
			"id":       e.item.ID,
			"score":    e.item.Score,
			"features": e.item.Features,
			"meta":     e.item.Meta,
			"labels":   labels,
		}
	}

	rctx := map[string]interface{}{}
	if e.rctx != nil {
		profile := map[string]interface{}{}
		if e.rctx.Profile != nil {
			profile = map[string]interface{}{
				"max_budget":      e.rctx.Profile.MaxBudget,
				"max_hours":       e.rctx.Profile.MaxHours,
				"min_activities":  e.rctx.Profile.MinActivities,
				"family_friendly": e.rctx.Profile.FamilyFriendly,
				"avoid_nightlife": e.rctx.Profile.AvoidNightlife,
				"prefer_tags":     e.rctx.Profile.PreferTags,
			}
		}
		rctx = map[string]interface{}{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"profile": profile,
			"params":  e.rctx.Params,
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"rctx":  rctx,
	}
}
