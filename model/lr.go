package model

import (
	"math"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型。
// 它是点击率预估 (CTR) 最基础也最经典的算法，这里做为默认的可训练基线。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 最终输出值 P 代表概率（如点击概率），范围在 (0, 1) 之间。
type LRModel struct {
	Bias    float64            // 偏置项 (Bias / Intercept)
	Weights map[string]float64 // 特征权重 (Weights / Coefficients)
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return sigmoid(score), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
