// Package searchop 是一个电商搜索排序工具集（Search Ordering Pipeline）。
//
// 设计要点：
// - Pipeline-first: 在线打分逻辑通过 Node 串联（Resolve → Filter → Rank → ReRank）
// - 离线在线同构: 特征库离线整表重建，在线 Resolver 按同一 schema 解析或兜底合成
// - Node 可扩展: 自定义 Node 即可插拔扩展（换模型、加过滤规则均不动框架）
package searchop

import "github.com/rushteam/searchop/pipeline"

// 轻量 facade：便于用户直接 import "searchop" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindResolve     = pipeline.KindResolve
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
