package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/lcharvest/internal/domain"
	"github.com/John-Robertt/lcharvest/internal/infra/fsx"
)

const (
	// ErrCodeNotFound 表示要读取的数据文件不存在。
	ErrCodeNotFound = "file_not_found"
	// ErrCodeInvalid 表示数据文件不是预期的 JSON 数组。
	ErrCodeInvalid = "file_invalid"
	// ErrCodeWriteFailed 表示写盘失败。
	ErrCodeWriteFailed = "write_failed"
)

// Error 是数据文件读写的结构化错误。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：文件 %q 不存在", e.Code, e.Path)
	case ErrCodeInvalid:
		return fmt.Sprintf("%s：无法解析 %q 中的 JSON：%v", e.Code, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s：写入 %q 失败：%v", e.Code, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Store 管理两个数据文件：目录文件（阶段一输出/阶段二输入）与结果文件（checkpoint/最终结果）。
//
// 约束：所有写入都是整文件原子覆盖；同一文件的 checkpoint 与最终写入格式完全一致。
type Store struct {
	CatalogPath string
	OutputPath  string
}

func New(catalogPath, outputPath string) Store {
	return Store{
		CatalogPath: filepath.Clean(strings.TrimSpace(catalogPath)),
		OutputPath:  filepath.Clean(strings.TrimSpace(outputPath)),
	}
}

// WriteCatalog 把目录原始条目写成缩进 JSON 数组。
// 条目的字段顺序与数字写法保持不变；\uXXXX 转义还原为字符后输出。
func (s Store) WriteCatalog(entries []json.RawMessage) error {
	out := make([]json.RawMessage, 0, len(entries))
	for i, e := range entries {
		b, err := fsx.UnescapeJSON(e)
		if err != nil {
			return &Error{Code: ErrCodeWriteFailed, Path: s.CatalogPath, Err: fmt.Errorf("第 %d 条：%w", i+1, err)}
		}
		out = append(out, b)
	}
	if err := fsx.WriteJSONAtomic(s.CatalogPath, out); err != nil {
		return &Error{Code: ErrCodeWriteFailed, Path: s.CatalogPath, Err: err}
	}
	return nil
}

// ReadCatalog 读取目录文件，返回其中的原始条目。
func (s Store) ReadCatalog() ([]json.RawMessage, error) {
	b, err := os.ReadFile(s.CatalogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: s.CatalogPath, Err: err}
		}
		return nil, &Error{Code: ErrCodeInvalid, Path: s.CatalogPath, Err: err}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: s.CatalogPath, Err: err}
	}
	return entries, nil
}

// WriteDetails 整体覆盖结果文件。空结果写成 []（而不是 null）。
func (s Store) WriteDetails(details []domain.ProblemDetail) error {
	if details == nil {
		details = []domain.ProblemDetail{}
	}
	if err := fsx.WriteJSONAtomic(s.OutputPath, details); err != nil {
		return &Error{Code: ErrCodeWriteFailed, Path: s.OutputPath, Err: err}
	}
	return nil
}

// ReadDetails 读取结果文件。
func (s Store) ReadDetails() ([]domain.ProblemDetail, error) {
	b, err := os.ReadFile(s.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: s.OutputPath, Err: err}
		}
		return nil, &Error{Code: ErrCodeInvalid, Path: s.OutputPath, Err: err}
	}
	var details []domain.ProblemDetail
	if err := json.Unmarshal(b, &details); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: s.OutputPath, Err: err}
	}
	return details, nil
}
