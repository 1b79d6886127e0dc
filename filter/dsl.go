package filter

import (
	"context"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/dsl"
)

// DSLFilter 是规则表达式过滤器：表达式对某个 item 求值为 true 时过滤该 item。
// 规则用 CEL 表达式描述，运营侧可以不改代码调整政策，例如：
//
//	&filter.DSLFilter{Expr: `item.meta.nightlife == true`}
//	&filter.DSLFilter{Expr: `item.meta.price > rctx.profile.max_budget`}
type DSLFilter struct {
	Expr string
}

func (f *DSLFilter) Name() string {
	return "filter.dsl"
}

func (f *DSLFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}

	matched, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		// 规则求值失败按"不过滤"处理，错误交由 FilterNode 忽略策略统一兜底
		return false, err
	}
	return matched, nil
}
