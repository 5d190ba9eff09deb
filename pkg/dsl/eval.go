package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/searchop/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
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

// Program 是编译后的 DSL 表达式，线程安全，可在请求间复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.features.rating >= 4.0
//   - 逻辑：item.meta.category == "footwear" && item.features.price < 100.0
//   - 标签：label.rank_model == "gbdt"
//   - 查询：rctx.query.contains("shoes")
type Program struct {
	prg cel.Program
}

// Compile 编译 DSL 表达式。表达式只编译一次，之后可并发调用 Eval。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{prg: prg}, nil
}

// Eval 对单个 item 执行表达式，返回布尔结果。
// 访问不存在的 key 时 CEL 会报错，表达式应使用 label.key != null 检查存在性。
func (p *Program) Eval(item *core.Item, rctx *core.RankContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RankContext) map[string]any {
	labels := make(map[string]any)
	labelAccessor := make(map[string]any)
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]any{
				"value":  v.Value,
				"source": v.Source,
			}
			// label.rank_model 直接取 value，兼容简写
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]any{}
	if item != nil {
		itemInput = map[string]any{
			"id":       item.ID,
			"title":    item.Title,
			"score":    item.Score,
			"features": item.Features,
			"meta":     item.Meta,
			"labels":   labels,
		}
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput = map[string]any{
			"query":   rctx.NormalizedQuery(),
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"params":  rctx.Params,
		}
	}

	return map[string]any{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
