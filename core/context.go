package core

import (
	"strings"

	"github.com/rushteam/searchop/pkg/utils"
)

// RankContext 承载一次排序请求的查询/用户/场景信息，贯穿整个 Pipeline 透传。
type RankContext struct {
	Query  string // 原始搜索词
	UserID string
	Scene  string

	// Labels 是请求级标签，可驱动整个 Pipeline 行为（如新用户、价格敏感）。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（device_type、page 等），
	// 实时特征建议加 realtime_ 前缀区分。
	Params map[string]any
}

// NormalizedQuery 返回小写化后的查询词。
// 特征库以小写 query 为键，查询侧统一在这里归一。
func (rctx *RankContext) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(rctx.Query))
}

// PutLabel 写入请求级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
