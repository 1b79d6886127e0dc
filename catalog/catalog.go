// Package catalog 定义目录快照：活动（items）与交互（interactions）两张表。
// 快照由外部 loader 提供，加载后不可变；索引（内容/协同）整体基于快照重建，
// 不做增量更新——目录变化时由调用方重建索引并原子替换引用。
package catalog

import "strings"

// Item 是目录中的单个活动。加载后不可变。
type Item struct {
	ID             string
	Title          string
	Tags           []string // 小写标签集合，由逗号/空白分隔的原始串拆分而来
	Price          float64  // >= 0
	DurationHr     float64  // >= 0
	FamilyFriendly bool
	Nightlife      bool
}

// TagSet 返回活动标签的集合形式。
func (it Item) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(it.Tags))
	for _, t := range it.Tags {
		set[t] = struct{}{}
	}
	return set
}

// Document 返回活动的文本表示（标题 + 标签），供内容索引向量化。
func (it Item) Document() string {
	if len(it.Tags) == 0 {
		return it.Title
	}
	return it.Title + " " + strings.Join(it.Tags, " ")
}

// Interaction 是一条用户-活动交互记录。
// 同一 (user, item) 的多条记录按权重求和累积；缺失权重按 1.0 处理（loader 负责）。
type Interaction struct {
	UserID string
	ItemID string
	Weight float64
}

// Catalog 是不可变的目录快照。Items 保持构造时的顺序——内容索引的第 i 行
// 恒对应 Items[i]。
type Catalog struct {
	Items        []Item
	Interactions []Interaction

	index map[string]int // item id -> Items 下标
}

// New 从活动与交互列表构造快照。后出现的重复 item id 被忽略（保留首个）。
func New(items []Item, interactions []Interaction) *Catalog {
	c := &Catalog{
		Items:        make([]Item, 0, len(items)),
		Interactions: interactions,
		index:        make(map[string]int, len(items)),
	}
	for _, it := range items {
		if _, ok := c.index[it.ID]; ok {
			continue
		}
		c.index[it.ID] = len(c.Items)
		c.Items = append(c.Items, it)
	}
	return c
}

// Len 返回活动数量。
func (c *Catalog) Len() int {
	return len(c.Items)
}

// ItemByID 按 ID 查找活动。
func (c *Catalog) ItemByID(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.Items[i], true
}

// IndexOf 返回活动在 Items 中的下标（与内容索引行号一致）。
func (c *Catalog) IndexOf(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// Popularity 按活动汇总交互权重（全局热度），供无信号时的热门回退使用。
func (c *Catalog) Popularity() map[string]float64 {
	pop := make(map[string]float64)
	for _, inter := range c.Interactions {
		if _, ok := c.index[inter.ItemID]; !ok {
			continue
		}
		pop[inter.ItemID] += inter.Weight
	}
	return pop
}

// PolicyEligible 返回满足政策开关的活动 ID 列表（保持目录顺序），
// 供推荐结果过少时的候选兜底。
func (c *Catalog) PolicyEligible(familyOnly, avoidNightlife bool) []string {
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		if familyOnly && !it.FamilyFriendly {
			continue
		}
		if avoidNightlife && it.Nightlife {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}

// ParseTags 将逗号/空白分隔的标签原始串拆为小写标签列表。
func ParseTags(raw string) []string {
	raw = strings.ToLower(strings.ReplaceAll(raw, ",", " "))
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
