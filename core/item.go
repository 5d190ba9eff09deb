package core

import (
	"github.com/rushteam/searchop/pkg/conv"
	"github.com/rushteam/searchop/pkg/utils"
)

// Item 是排序链路中的统一承载结构：候选商品、特征、分数、标签。
// Features 由特征解析节点填充；Score 由排序节点写入。
type Item struct {
	ID       int64
	Title    string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaFloat 从 Meta 取数值字段（price、rating 等），取不到返回 0。
func (it *Item) MetaFloat(key string) float64 {
	if it.Meta == nil {
		return 0
	}
	v, _ := conv.ToFloat64(it.Meta[key])
	return v
}

// MetaString 从 Meta 取字符串字段（title、brand 等），取不到返回 ""。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := conv.ToString(it.Meta[key])
	return s
}
