// Package builders 注册内置 Node 的配置构建器。
//
// 配置驱动用法：
//
//	import _ "github.com/rushteam/tripkit/config/builders"
//
//	cfg, _ := pipeline.LoadFromYAML("pipeline.yaml")
//	p, _ := cfg.BuildPipeline(config.DefaultFactory())
//
// 召回类 Node 需要目录快照，统一用 items_csv / interactions_csv 两个
// 配置键指定数据文件；同一对路径在进程内只加载一次。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/tripkit/config"
	"github.com/rushteam/tripkit/filter"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/conv"
	"github.com/rushteam/tripkit/rank"
	"github.com/rushteam/tripkit/recall"
	"github.com/rushteam/tripkit/rerank"
	"github.com/rushteam/tripkit/store"
)

func init() {
	config.Register("recall.fanout", buildFanoutNode)
	config.Register("recall.content", buildContentNode)
	config.Register("recall.i2i", buildCollabNode)
	config.Register("recall.hot", buildHotNode)
	config.Register("filter", buildFilterNode)
	config.Register("rank.hybrid", buildHybridNode)
	config.Register("rerank.mmr", buildMMRNode)
	config.Register("rerank.topn", buildTopNNode)
}

func buildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		// 子源配置里没写数据路径时继承 fanout 级别的路径
		inheritCatalogPaths(sourceMap, cfg)

		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		switch sourceType {
		case "content":
			node, err := buildContentNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(recall.Source))
		case "i2i":
			node, err := buildCollabNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(recall.Source))
		case "hot":
			node, err := buildHotNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(recall.Source))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet[string](cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func buildContentNode(cfg map[string]interface{}) (pipeline.Node, error) {
	c, err := catalogFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &recall.ContentRecall{
		Index:   recall.NewContentIndex(c),
		Catalog: c,
		TopK:    conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

func buildCollabNode(cfg map[string]interface{}) (pipeline.Node, error) {
	c, err := catalogFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &recall.CollabRecall{
		Index:   recall.NewCollabIndex(c),
		Catalog: c,
		TopK:    conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

func buildHotNode(cfg map[string]interface{}) (pipeline.Node, error) {
	c, err := catalogFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	hot := &recall.Hot{
		Catalog: c,
		Key:     conv.ConfigGet[string](cfg, "key", ""),
		TopK:    conv.ConfigGetInt(cfg, "top_k", 0),
	}

	// redis_addr 配置后热门榜从 Redis zset 读取，否则按目录交互热度兜底
	if addr := conv.ConfigGet[string](cfg, "redis_addr", ""); addr != "" {
		rs, err := store.NewRedisStore(addr, conv.ConfigGetInt(cfg, "redis_db", 0))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		hot.Store = rs
	}
	return hot, nil
}

func buildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet[string](filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			filters = append(filters, filter.NewBlacklistFilter(ids...))

		case "policy":
			filters = append(filters, &filter.PolicyFilter{
				FamilyFriendly: conv.ConfigGet[bool](filterMap, "family_friendly", false),
				AvoidNightlife: conv.ConfigGet[bool](filterMap, "avoid_nightlife", false),
			})

		case "dsl":
			expr := conv.ConfigGet[string](filterMap, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("dsl filter: expr is required")
			}
			filters = append(filters, &filter.DSLFilter{Expr: expr})

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

func buildHybridNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.HybridNode{
		Alpha: conv.ConfigGetFloat64(cfg, "alpha", 0.6),
		Beta:  conv.ConfigGetFloat64(cfg, "beta", 0.4),
	}, nil
}

func buildMMRNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.MMRNode{
		Lambda: conv.ConfigGetFloat64(cfg, "lambda", 0),
		N:      conv.ConfigGetInt(cfg, "n", 0),
	}, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n <= 0 {
		return nil, fmt.Errorf("rerank.topn: n must be positive")
	}
	return &rerank.TopNNode{N: n}, nil
}

// inheritCatalogPaths 让子源配置继承父级的数据文件路径。
func inheritCatalogPaths(child, parent map[string]interface{}) {
	for _, key := range []string{"items_csv", "interactions_csv"} {
		if _, ok := child[key]; !ok {
			if v, ok := parent[key]; ok {
				child[key] = v
			}
		}
	}
}
