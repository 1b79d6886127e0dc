package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/tripkit/catalog"
	"github.com/rushteam/tripkit/pkg/conv"
)

var (
	catalogCache   = make(map[string]*catalog.Catalog)
	catalogCacheMu sync.Mutex
)

// catalogFromConfig 按 items_csv / interactions_csv 加载目录快照。
// 同一对路径在进程内只加载一次，fanout 下多个召回源共享同一份快照。
func catalogFromConfig(cfg map[string]interface{}) (*catalog.Catalog, error) {
	itemsPath := conv.ConfigGet[string](cfg, "items_csv", "")
	if itemsPath == "" {
		return nil, fmt.Errorf("items_csv is required")
	}
	interactionsPath := conv.ConfigGet[string](cfg, "interactions_csv", "")

	cacheKey := itemsPath + "\x00" + interactionsPath

	catalogCacheMu.Lock()
	defer catalogCacheMu.Unlock()

	if c, ok := catalogCache[cacheKey]; ok {
		return c, nil
	}
	c, err := catalog.LoadCSVFiles(itemsPath, interactionsPath)
	if err != nil {
		return nil, err
	}
	catalogCache[cacheKey] = c
	return c, nil
}
