package model

import (
	"github.com/rushteam/searchop/core"
)

// GBDTModel 是梯度提升树 (Gradient Boosted Decision Trees) 的推理实现。
// 训练在外部完成，制品里只带树结构；这里只做确定性的树遍历求和：
//
//	raw = Bias + sum(tree_i(features))
//	P   = sigmoid(raw)
//
// 输出与 LRModel 同为 (0, 1) 概率，Ranker 不感知两者差异。
type GBDTModel struct {
	Bias  float64 `json:"bias"`
	Trees []Tree  `json:"trees"`
}

// Tree 是一棵回归树，节点存放在扁平数组里，0 号是根。
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode 是树节点：Leaf=true 时 Value 是叶子输出，
// 否则按 features[Feature] <= Threshold 走 Left，反之走 Right。
// 特征缺失按 0 处理（与特征行的"缺失补 0"口径一致）。
type TreeNode struct {
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// ErrModelInvalid 表示模型制品损坏（树结构越界/成环）。
var ErrModelInvalid = core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: invalid tree structure")

func (m *GBDTModel) Name() string { return "gbdt" }

func (m *GBDTModel) Predict(features map[string]float64) (float64, error) {
	raw := m.Bias
	for i := range m.Trees {
		leaf, err := m.Trees[i].eval(features)
		if err != nil {
			return 0, err
		}
		raw += leaf
	}
	return sigmoid(raw), nil
}

func (t *Tree) eval(features map[string]float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, nil
	}
	idx := 0
	// 每步必须向数组后方走，天然防环；越界即制品损坏
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, ErrModelInvalid
		}
		node := &t.Nodes[idx]
		if node.Leaf {
			return node.Value, nil
		}
		next := node.Right
		if features[node.Feature] <= node.Threshold {
			next = node.Left
		}
		if next <= idx {
			return 0, ErrModelInvalid
		}
		idx = next
	}
	return 0, ErrModelInvalid
}
