package filter

import (
	"context"
	"sync"

	"github.com/rushteam/searchop/core"
	"github.com/rushteam/searchop/pkg/dsl"
)

// RuleFilter 是表达式驱动的过滤器：用 CEL 表达式描述"什么样的候选要被剔除"。
//
// 示例：
//   - `item.features.rating < 2.0` → 低评分商品不进入排序
//   - `item.features.price <= 0.0` → 价格异常商品剔除
//   - `item.meta.category == "adult" && rctx.scene == "homepage"` → 场景规则
//
// 表达式首次使用时编译并缓存，之后可并发复用。
type RuleFilter struct {
	// Expr 是 CEL 表达式，返回 true 表示过滤。空表达式不过滤任何候选。
	Expr string

	once sync.Once
	prg  *dsl.Program
	err  error
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.Item) (bool, error) {
	if f.Expr == "" {
		return false, nil
	}
	f.once.Do(func() {
		f.prg, f.err = dsl.Compile(f.Expr)
	})
	if f.err != nil {
		return false, f.err
	}
	return f.prg.Eval(item, rctx)
}
