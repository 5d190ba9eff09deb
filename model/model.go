package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
// 具体实现可以是本地模型（LR/GBDT），测试里也可以用桩实现。
// 实现必须无状态可并发：同一模型实例会被多个请求协程共享。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}
