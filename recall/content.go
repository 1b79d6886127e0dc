package recall

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// ContentIndex 是基于文本的内容相似索引。
//
// 构建：
//  1. 每个活动的文档 = 标题 + 标签串
//  2. 在全部文档上拟合词表（unigram + bigram）与 IDF
//  3. 每个活动表示为 L2 归一化的 TF-IDF 稀疏向量，第 i 行恒对应
//     目录快照 Items[i]
//
// 相似度 = 余弦（归一化向量点积），天然落在 [0,1]。
// 索引构建后不可变；目录变化时整体重建并由调用方原子替换引用，
// 因此已建好的索引可被任意多并发读者共享。
type ContentIndex struct {
	ids   []string
	rowOf map[string]int

	vocab map[string]int // term -> 列号
	idf   []float64      // 按列号对齐
	rows  []map[int]float64
}

// NewContentIndex 在目录快照上构建内容索引，O(目录规模)，无缓存。
func NewContentIndex(c *catalog.Catalog) *ContentIndex {
	idx := &ContentIndex{
		ids:   make([]string, 0, c.Len()),
		rowOf: make(map[string]int, c.Len()),
		vocab: make(map[string]int),
	}

	// 1. 分词并统计文档频次
	docs := make([][]string, 0, c.Len())
	df := make(map[string]int)
	for _, it := range c.Items {
		terms := ngramTerms(it.Document())
		docs = append(docs, terms)
		idx.rowOf[it.ID] = len(idx.ids)
		idx.ids = append(idx.ids, it.ID)

		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	// 2. 固定词表与平滑 IDF：idf = ln((1+N)/(1+df)) + 1
	n := float64(len(docs))
	idx.idf = make([]float64, 0, len(df))
	for _, terms := range docs {
		for _, t := range terms {
			if _, ok := idx.vocab[t]; !ok {
				idx.vocab[t] = len(idx.idf)
				idx.idf = append(idx.idf, math.Log((1+n)/(1+float64(df[t])))+1)
			}
		}
	}

	// 3. 每行 TF*IDF 并做 L2 归一化
	idx.rows = make([]map[int]float64, len(docs))
	for i, terms := range docs {
		idx.rows[i] = idx.vectorize(terms)
	}
	return idx
}

// SimilarItem 返回与种子活动最相似的 k 个活动（不含自身），按相似度降序。
// 未知 item_id 返回 NOT_FOUND 错误。
func (x *ContentIndex) SimilarItem(itemID string, k int) ([]ScoredItem, error) {
	row, ok := x.rowOf[itemID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeNotFound, "content index: unknown item "+itemID)
	}

	out := make([]ScoredItem, 0, len(x.rows)-1)
	for i := range x.rows {
		if i == row {
			continue // 自身不参与推荐
		}
		out = append(out, ScoredItem{ID: x.ids[i], Score: dotSparse(x.rows[row], x.rows[i])})
	}
	return topKScored(out, k), nil
}

// SimilarText 将自由文本投影到同一词表空间后评分；词表外的词贡献为 0。
func (x *ContentIndex) SimilarText(text string, k int) []ScoredItem {
	q := x.vectorize(ngramTerms(text))
	out := make([]ScoredItem, 0, len(x.rows))
	for i := range x.rows {
		out = append(out, ScoredItem{ID: x.ids[i], Score: dotSparse(q, x.rows[i])})
	}
	return topKScored(out, k)
}

// vectorize 统计词频、乘 IDF 并做 L2 归一化。词表外的词被丢弃。
func (x *ContentIndex) vectorize(terms []string) map[int]float64 {
	vec := make(map[int]float64)
	for _, t := range terms {
		col, ok := x.vocab[t]
		if !ok {
			continue
		}
		vec[col]++
	}

	var norm float64
	for col := range vec {
		vec[col] *= x.idf[col]
		norm += vec[col] * vec[col]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col := range vec {
			vec[col] /= norm
		}
	}
	return vec
}

// ngramTerms 分词并拼接 unigram + bigram。
// 仅保留长度 >= 2 的字母数字 token（与常见文本向量化器的默认行为一致）。
func ngramTerms(text string) []string {
	tokens := tokenize(text)
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r >= 0x80)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func dotSparse(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for col, va := range a {
		if vb, ok := b[col]; ok {
			dot += va * vb
		}
	}
	return dot
}

// topKScored 按分数降序（稳定）排序并截断到 k；k <= 0 时不截断。
func topKScored(items []ScoredItem, k int) []ScoredItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items
}

// ContentRecall 是内容相似召回源：按 RecommendContext.Signal 分发到
// 种子相似 / 文本相似；无信号时返回空（热门回退由 Hot 承担）。
// 同时实现 Source 与 Node 接口，可直接在 Pipeline 中使用。
type ContentRecall struct {
	Index   *ContentIndex
	Catalog *catalog.Catalog

	// TopK 返回 TopK 个活动，<= 0 时默认 100
	TopK int
}

func (r *ContentRecall) Name() string { return "recall.content" }

func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *ContentRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Index == nil || rctx == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 100
	}

	var (
		scored []ScoredItem
		err    error
	)
	switch rctx.Signal.Kind {
	case core.SignalSeedItem:
		scored, err = r.Index.SimilarItem(rctx.Signal.SeedItemID, topK)
		if err != nil {
			return nil, err
		}
	case core.SignalFreeText:
		scored = r.Index.SimilarText(rctx.Signal.Text, topK)
	default:
		return nil, nil
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutFeature("content_score", s.Score)
		fillMeta(it, r.Catalog)
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
