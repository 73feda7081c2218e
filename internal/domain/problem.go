package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// CatalogEntry 是目录接口返回的单条原始记录（stat_status_pairs 的一项）。
//
// 约束：Raw 原样保留（字段顺序、未知字段都不动）；Slug/PaidOnly 只是从 Raw 中解出的索引字段。
type CatalogEntry struct {
	Raw      json.RawMessage
	Slug     string
	PaidOnly bool
}

// ParseCatalogEntry 从原始 JSON 中解出 slug 与付费标记。
// 字段缺失不算错误（slug 为空、paid_only=false）；但记录本身必须是 JSON object。
func ParseCatalogEntry(raw json.RawMessage) (CatalogEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return CatalogEntry{}, errors.New("目录条目不是 JSON object")
	}
	var v struct {
		PaidOnly bool `json:"paid_only"`
		Stat     struct {
			TitleSlug string `json:"question__title_slug"`
		} `json:"stat"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return CatalogEntry{}, err
	}
	return CatalogEntry{
		Raw:      append(json.RawMessage(nil), raw...),
		Slug:     v.Stat.TitleSlug,
		PaidOnly: v.PaidOnly,
	}, nil
}

// MarshalJSON 原样输出 Raw。
func (e CatalogEntry) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return []byte("null"), nil
	}
	return e.Raw, nil
}

// Difficulty 是题目难度标签。
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Known 报告标签是否属于 Easy/Medium/Hard。
func (d Difficulty) Known() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// FrontendID 是题目对外展示的编号。接口可能给字符串也可能给数字；统一按字符串输出。
type FrontendID string

func (id *FrontendID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return errors.New("frontend id 为 null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FrontendID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("frontend id 既不是字符串也不是数字：%s", b)
	}
	*id = FrontendID(n.String())
	return nil
}

// ProblemDetail 是一条富化完成的记录，也是输出文件的元素。
// 构造后不再修改。
type ProblemDetail struct {
	ID          FrontendID `json:"id"`
	Title       string     `json:"title"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
}
