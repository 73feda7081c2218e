// Package catalog 实现阶段一（拉取题目目录并原样落盘）与阶段二的目录加载。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/John-Robertt/lcharvest/internal/domain"
	"github.com/John-Robertt/lcharvest/internal/infra/store"
)

// ErrEmptyCatalog 表示接口正常返回但没有任何题目：视为异常，但不是致命错误，也不写文件。
var ErrEmptyCatalog = errors.New("接口响应中没有题目数据")

// Source 提供完整题目列表（原始 JSON 条目）。
type Source interface {
	FetchCatalog(ctx context.Context) ([]json.RawMessage, error)
}

// FetchResult 描述阶段一的结果。
type FetchResult struct {
	Count   int
	Path    string
	Written bool
}

// Fetch 拉取目录并整体覆盖写入目录文件。
//
// 任何错误（网络/状态码/解析/写盘）都在写盘之前或写盘本身返回；失败时不会留下部分内容。
func Fetch(ctx context.Context, src Source, st store.Store, logger *zap.Logger) (FetchResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := FetchResult{Path: st.CatalogPath}

	logger.Info("开始拉取题目目录")
	entries, err := src.FetchCatalog(ctx)
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		return res, ErrEmptyCatalog
	}

	res.Count = len(entries)
	logger.Info("找到题目", zap.Int("count", res.Count))

	if err := st.WriteCatalog(entries); err != nil {
		return res, err
	}
	res.Written = true
	logger.Info("题目目录已保存", zap.String("path", st.CatalogPath))
	return res, nil
}

// Load 读取目录文件并过滤掉付费题目，保持原有顺序。
//
// 文件不存在/无法解析时返回 *store.Error（Code 区分原因）与 nil 切片。
// 返回空切片（无错误）同样意味着“没有可处理的数据”，由调用方检查。
func Load(st store.Store, logger *zap.Logger) ([]domain.CatalogEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	raws, err := st.ReadCatalog()
	if err != nil {
		return nil, err
	}

	out := make([]domain.CatalogEntry, 0, len(raws))
	for i, raw := range raws {
		e, err := domain.ParseCatalogEntry(raw)
		if err != nil {
			return nil, &store.Error{
				Code: store.ErrCodeInvalid,
				Path: st.CatalogPath,
				Err:  fmt.Errorf("第 %d 条：%w", i+1, err),
			}
		}
		if e.PaidOnly {
			continue
		}
		out = append(out, e)
	}

	logger.Info("已加载免费题目",
		zap.Int("count", len(out)),
		zap.Int("paid_filtered", len(raws)-len(out)),
		zap.String("path", st.CatalogPath),
	)
	return out, nil
}
