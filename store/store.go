package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 和 core.KeyValueStore 接口。
//
// tripkit 里存储层有两类用途：
//   - 热门活动榜（zset：key -> member(活动 ID) + score(热度)），供 recall.Hot 读取
//   - 运营黑名单（JSON 编码的活动 ID 列表），供 filter.BlacklistFilter 读取
//
// 示例：
//   var s core.Store = NewMemoryStore()
//   var kv core.KeyValueStore = NewMemoryStore()
