package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/tripkit/core"
)

// LoadCSVFiles 从两个 CSV 文件加载目录快照。
//
// items 表列：item_id, title, price, duration_hr, tags, family_friendly, nightlife
// interactions 表列：user_id, item_id, weight
//
// 容错约定：数值字段格式错误时按 0 处理，不让整个加载失败；
// 交互缺失 weight 列或值为空时按 1.0 处理。
func LoadCSVFiles(itemsPath, interactionsPath string) (*Catalog, error) {
	itemsFile, err := os.Open(itemsPath)
	if err != nil {
		return nil, fmt.Errorf("open items csv: %w", err)
	}
	defer itemsFile.Close()

	// 交互表可缺省：纯内容/热门场景没有协同信号
	var interactions io.Reader = strings.NewReader("")
	if interactionsPath != "" {
		interFile, err := os.Open(interactionsPath)
		if err != nil {
			return nil, fmt.Errorf("open interactions csv: %w", err)
		}
		defer interFile.Close()
		interactions = interFile
	}

	return LoadCSV(itemsFile, interactions)
}

// LoadCSV 从两个 CSV 数据流加载目录快照。首行必须是表头，列顺序不限。
func LoadCSV(items, interactions io.Reader) (*Catalog, error) {
	itemRows, err := readTable(items)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "items csv: "+err.Error())
	}
	interRows, err := readTable(interactions)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "interactions csv: "+err.Error())
	}

	parsedItems := make([]Item, 0, len(itemRows))
	for _, row := range itemRows {
		id := row["item_id"]
		if id == "" {
			continue
		}
		parsedItems = append(parsedItems, Item{
			ID:             id,
			Title:          row["title"],
			Tags:           ParseTags(row["tags"]),
			Price:          coerceFloat(row["price"]),
			DurationHr:     coerceFloat(row["duration_hr"]),
			FamilyFriendly: coerceBool(row["family_friendly"]),
			Nightlife:      coerceBool(row["nightlife"]),
		})
	}

	parsedInters := make([]Interaction, 0, len(interRows))
	for _, row := range interRows {
		userID := row["user_id"]
		itemID := row["item_id"]
		if userID == "" || itemID == "" {
			continue
		}
		weight := 1.0
		if raw, ok := row["weight"]; ok && strings.TrimSpace(raw) != "" {
			weight = coerceFloat(raw)
		}
		parsedInters = append(parsedInters, Interaction{
			UserID: userID,
			ItemID: itemID,
			Weight: weight,
		})
	}

	return New(parsedItems, parsedInters), nil
}

// readTable 读取带表头的 CSV，返回按列名索引的行。
func readTable(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// coerceFloat 宽容解析数值：格式错误或为负时归 0。
func coerceFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// coerceBool 宽容解析布尔：接受 1/true/yes（大小写不敏感），其余一律 false。
func coerceBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
