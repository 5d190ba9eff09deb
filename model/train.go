package model

import (
	"math"
)

// TrainOptions 控制 LR 训练。零值字段取默认。
type TrainOptions struct {
	Epochs       int     // 默认 200
	LearningRate float64 // 默认 0.1
	L2           float64 // L2 正则系数，默认 0
}

// TrainLR 用全量梯度下降拟合一个逻辑回归。
// 无随机性：给定相同样本与参数，输出逐位一致，离线 pipeline 可复现。
//
// samples 是特征 map（缺失特征按 0），labels 取 {0, 1}，cols 固定特征列与顺序。
func TrainLR(samples []map[string]float64, labels []float64, cols []string, opts TrainOptions) *LRModel {
	if opts.Epochs <= 0 {
		opts.Epochs = 200
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.1
	}

	weights := make(map[string]float64, len(cols))
	for _, c := range cols {
		weights[c] = 0
	}
	bias := 0.0

	n := len(samples)
	if n == 0 {
		return &LRModel{Bias: bias, Weights: weights}
	}

	grad := make(map[string]float64, len(cols))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for _, c := range cols {
			grad[c] = 0
		}
		gradBias := 0.0

		for i, x := range samples {
			z := bias
			for _, c := range cols {
				z += weights[c] * x[c]
			}
			err := sigmoid(z) - labels[i]
			gradBias += err
			for _, c := range cols {
				grad[c] += err * x[c]
			}
		}

		bias -= opts.LearningRate * gradBias / float64(n)
		for _, c := range cols {
			g := grad[c]/float64(n) + opts.L2*weights[c]
			weights[c] -= opts.LearningRate * g
			if math.IsNaN(weights[c]) || math.IsInf(weights[c], 0) {
				// 学习率过大导致发散时直接归零该权重，保底可用
				weights[c] = 0
			}
		}
	}
	return &LRModel{Bias: bias, Weights: weights}
}
