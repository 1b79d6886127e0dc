package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/tripkit/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉被屏蔽的活动。
// 调用方传入的 blocked_ids 与存储中的运营黑名单都走这条路径。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单活动 ID 列表
	ItemIDs []string

	// Store/Key 可选：从存储读取黑名单（JSON 数组形式的活动 ID 列表）
	Store core.Store
	Key   string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs ...string) *BlacklistFilter {
	return &BlacklistFilter{ItemIDs: itemIDs}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err == nil {
			var blocked []string
			if json.Unmarshal(data, &blocked) == nil {
				for _, id := range blocked {
					if item.ID == id {
						return true, nil
					}
				}
			}
		}
	}

	return false, nil
}

// Blocked 实现 rank.Guard 语义，便于黑名单在排序前复用。
// 注意：只检查内存列表；Store 黑名单请走 ShouldFilter。
func (f *BlacklistFilter) Blocked(id string) bool {
	for _, blocked := range f.ItemIDs {
		if id == blocked {
			return true
		}
	}
	return false
}
