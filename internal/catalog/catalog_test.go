package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/lcharvest/internal/infra/store"
)

type stubSource struct {
	entries []json.RawMessage
	err     error
	calls   int
}

func (s *stubSource) FetchCatalog(ctx context.Context) ([]json.RawMessage, error) {
	s.calls++
	return s.entries, s.err
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()
	return store.New(filepath.Join(dir, "raw.json"), filepath.Join(dir, "out.json"))
}

func entry(slug string, paid bool) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"stat":{"question__title_slug":%q},"paid_only":%t}`, slug, paid))
}

func TestFetch_WritesCatalog(t *testing.T) {
	st := newStore(t)
	src := &stubSource{entries: []json.RawMessage{entry("two-sum", false), entry("lru-cache", true)}}

	res, err := Fetch(context.Background(), src, st, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !res.Written || res.Count != 2 {
		t.Fatalf("结果不符合预期：%+v", res)
	}

	got, err := st.ReadCatalog()
	if err != nil {
		t.Fatalf("读取目录失败：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(got))
	}
}

func TestFetch_Reproducible(t *testing.T) {
	st := newStore(t)
	src := &stubSource{entries: []json.RawMessage{
		json.RawMessage(`{"stat":{"question__title":"两数之和","question__title_slug":"two-sum"},"difficulty":{"level":1},"paid_only":false}`),
	}}

	if _, err := Fetch(context.Background(), src, st, nil); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	first, err := os.ReadFile(st.CatalogPath)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if _, err := Fetch(context.Background(), src, st, nil); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	second, err := os.ReadFile(st.CatalogPath)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("相同输入应得到逐字节相同的输出：\n%s\n---\n%s", first, second)
	}
	if !bytes.Contains(first, []byte("两数之和")) {
		t.Fatalf("Unicode 应原样输出：%s", first)
	}
	if bytes.Index(first, []byte(`"stat"`)) > bytes.Index(first, []byte(`"paid_only"`)) {
		t.Fatalf("字段顺序应保持原样：%s", first)
	}
}

func TestFetch_DecodesUnicodeEscapes(t *testing.T) {
	st := newStore(t)
	src := &stubSource{entries: []json.RawMessage{
		json.RawMessage(`{"stat":{"question__title":"Caf\u00e9 \u4e24","question__title_slug":"cafe"},"paid_only":false}`),
	}}

	if _, err := Fetch(context.Background(), src, st, nil); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(st.CatalogPath)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if !bytes.Contains(b, []byte(`"question__title": "Café 两"`)) {
		t.Fatalf("\\u 转义应还原为字符：%s", b)
	}
	if bytes.Contains(b, []byte(`\u00e9`)) {
		t.Fatalf("文件中不应残留 \\u 转义：%s", b)
	}
	if bytes.Index(b, []byte(`"question__title"`)) > bytes.Index(b, []byte(`"question__title_slug"`)) ||
		bytes.Index(b, []byte(`"stat"`)) > bytes.Index(b, []byte(`"paid_only"`)) {
		t.Fatalf("字段顺序应保持原样：%s", b)
	}

	got, err := Load(st, nil)
	if err != nil || len(got) != 1 || got[0].Slug != "cafe" {
		t.Fatalf("写出的目录应能正常加载：%+v err=%v", got, err)
	}
}

func TestFetch_EmptyCatalogWritesNothing(t *testing.T) {
	st := newStore(t)
	res, err := Fetch(context.Background(), &stubSource{}, st, nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("期望 ErrEmptyCatalog，实际 %v", err)
	}
	if res.Written {
		t.Fatalf("空目录不应写文件")
	}
	if _, err := os.Stat(st.CatalogPath); !os.IsNotExist(err) {
		t.Fatalf("空目录不应创建文件，Stat err=%v", err)
	}
}

func TestFetch_SourceErrorWritesNothing(t *testing.T) {
	st := newStore(t)
	// 预先放一个旧文件：失败时必须保持不变。
	if err := os.WriteFile(st.CatalogPath, []byte("[]\n"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	boom := errors.New("boom")
	_, err := Fetch(context.Background(), &stubSource{err: boom}, st, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("期望透传 source 错误，实际 %v", err)
	}
	b, _ := os.ReadFile(st.CatalogPath)
	if string(b) != "[]\n" {
		t.Fatalf("失败时旧文件不应被改动：%q", b)
	}
}

func TestLoad_FiltersPaidKeepsOrder(t *testing.T) {
	st := newStore(t)
	raws := []json.RawMessage{
		entry("a", false),
		entry("b", true),
		entry("c", false),
		entry("d", true),
		entry("e", false),
		json.RawMessage(`{"stat":{"question__title_slug":"f"}}`), // paid_only 缺失视为免费
	}
	if err := st.WriteCatalog(raws); err != nil {
		t.Fatalf("写入目录失败：%v", err)
	}

	got, err := Load(st, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	slugs := make([]string, 0, len(got))
	for _, e := range got {
		slugs = append(slugs, e.Slug)
	}
	if diff := cmp.Diff([]string{"a", "c", "e", "f"}, slugs); diff != "" {
		t.Fatalf("过滤结果不符合预期 (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	st := newStore(t)

	got, err := Load(st, nil)
	if store.Code(err) != store.ErrCodeNotFound || got != nil {
		t.Fatalf("文件不存在：期望 %q 且结果为 nil，实际 %v %v", store.ErrCodeNotFound, got, err)
	}

	if err := os.WriteFile(st.CatalogPath, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if _, err := Load(st, nil); store.Code(err) != store.ErrCodeInvalid {
		t.Fatalf("坏 JSON：期望 %q，实际 %v", store.ErrCodeInvalid, err)
	}

	if err := os.WriteFile(st.CatalogPath, []byte(`[{"paid_only":false}, 3]`), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if _, err := Load(st, nil); store.Code(err) != store.ErrCodeInvalid {
		t.Fatalf("非 object 条目：期望 %q，实际 %v", store.ErrCodeInvalid, err)
	}
}

func TestLoad_AllPaidIsEmpty(t *testing.T) {
	st := newStore(t)
	if err := st.WriteCatalog([]json.RawMessage{entry("a", true)}); err != nil {
		t.Fatalf("写入目录失败：%v", err)
	}
	got, err := Load(st, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("期望空结果，实际 %d", len(got))
	}
}
