// Package tripkit 是一个旅行推荐工具包（Trip Recommender Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测
// - 双信号混合: 内容相似（TF-IDF）+ 协同相似（Item-CF），线性融合 + MMR 多样化
// - 行程编排: 在候选集上做带硬约束的 Beam Search，产出可行的多活动行程
package tripkit

import "github.com/rushteam/tripkit/pipeline"

// 轻量 facade：便于用户直接 import "tripkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
