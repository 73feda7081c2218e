package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/John-Robertt/lcharvest/internal/infra/httpx"
)

func TestLoadEffective_NoFilesUsesDefaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.CatalogURL != DefaultCatalogURL || eff.GraphQLURL != DefaultGraphQLURL {
		t.Fatalf("URL 默认值不符合预期：%+v", eff)
	}
	if eff.RequestDelay != 700*time.Millisecond {
		t.Fatalf("期望 delay=700ms，实际 %s", eff.RequestDelay)
	}
	if eff.RequestTimeout != 20*time.Second {
		t.Fatalf("期望 timeout=20s，实际 %s", eff.RequestTimeout)
	}
	if eff.CheckpointInterval != 100 {
		t.Fatalf("期望 checkpoint_interval=100，实际 %d", eff.CheckpointInterval)
	}
	if eff.UserAgent != httpx.DefaultUserAgent {
		t.Fatalf("期望默认 UA，实际 %q", eff.UserAgent)
	}
	if eff.CatalogPath != filepath.Join(cwd, DefaultCatalogFile) {
		t.Fatalf("catalog 路径不符合预期：%q", eff.CatalogPath)
	}
	if eff.OutputPath != filepath.Join(cwd, DefaultOutputFile) {
		t.Fatalf("output 路径不符合预期：%q", eff.OutputPath)
	}
	if len(eff.Sources) != 0 {
		t.Fatalf("无配置文件时 Sources 应为空：%v", eff.Sources)
	}
}

func TestLoadEffective_FileOverridesAndDefaultsFill(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
		// JSON5：允许注释与尾逗号
		output_file: "data/out.json",
		request_delay: "0s",
		checkpoint_interval: 10,
	}`))

	eff, err := LoadEffective(cwd)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.OutputPath != filepath.Join(cwd, "data", "out.json") {
		t.Fatalf("output 路径不符合预期：%q", eff.OutputPath)
	}
	if eff.RequestDelay != 0 {
		t.Fatalf("期望 delay=0，实际 %s", eff.RequestDelay)
	}
	if eff.CheckpointInterval != 10 {
		t.Fatalf("期望 checkpoint_interval=10，实际 %d", eff.CheckpointInterval)
	}
	// 未设置的字段由默认值补齐。
	if eff.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("期望默认 timeout，实际 %s", eff.RequestTimeout)
	}
	if eff.CatalogPath != filepath.Join(cwd, DefaultCatalogFile) {
		t.Fatalf("catalog 路径不符合预期：%q", eff.CatalogPath)
	}
	if len(eff.Sources) != 1 {
		t.Fatalf("期望 1 个配置来源，实际 %v", eff.Sources)
	}
}

func TestLoadEffective_LocalOverridesMain(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"log_level":"warn","checkpoint_interval":50}`))
	writeFile(t, filepath.Join(cwd, LocalFileName), []byte(`{"log_level":"debug"}`))

	eff, err := LoadEffective(cwd)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != "debug" {
		t.Fatalf("期望 local 覆盖 log_level=debug，实际 %q", eff.LogLevel)
	}
	if eff.CheckpointInterval != 50 {
		t.Fatalf("local 未设置的字段应保留主配置：%d", eff.CheckpointInterval)
	}
	if len(eff.Sources) != 2 {
		t.Fatalf("期望 2 个配置来源，实际 %v", eff.Sources)
	}
}

func TestLoadEffective_LocalClearsMainValue(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{
  proxy_url: "http://127.0.0.1:7890",
  request_delay: "2s",
  log_level: "warn",
}`))
	writeFile(t, filepath.Join(cwd, LocalFileName), []byte(`{proxy_url: "", request_delay: "0s", log_level: ""}`))

	eff, err := LoadEffective(cwd)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ProxyURL != "" {
		t.Fatalf("local 写 proxy_url: \"\" 应关闭代理，实际 %q", eff.ProxyURL)
	}
	if eff.RequestDelay != 0 {
		t.Fatalf("local 应能把 request_delay 设为 0，实际 %s", eff.RequestDelay)
	}
	if eff.LogLevel != DefaultLogLevel {
		t.Fatalf("被清空的 log_level 应回落到默认值，实际 %q", eff.LogLevel)
	}
}

func TestLoadEffective_InvalidLocalFile(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, LocalFileName), []byte(`{checkpoint_interval: "many"}`))

	_, err := LoadEffective(cwd)
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 %v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_InvalidFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "坏 JSON", body: `{`},
		{name: "坏 URL", body: `{"graphql_url":"ftp://x"}`},
		{name: "坏模板", body: `{"problem_url_template":"https://x/problems/"}`},
		{name: "坏 delay", body: `{"request_delay":"soon"}`},
		{name: "负 delay", body: `{"request_delay":"-1s"}`},
		{name: "零 timeout", body: `{"request_timeout":"0s"}`},
		{name: "负 interval", body: `{"checkpoint_interval":-1}`},
		{name: "坏 proxy", body: `{"proxy_url":"127.0.0.1:8080"}`},
		{name: "坏日志级别", body: `{"log_level":"loud"}`},
		{name: "输入输出同一文件", body: `{"catalog_file":"a.json","output_file":"a.json"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, FileName), []byte(tc.body))

			_, err := LoadEffective(cwd)
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cwd := t.TempDir()
	eff, err := Defaults(cwd)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ProblemURLTemplate != DefaultProblemURLTemplate {
		t.Fatalf("模板不符合预期：%q", eff.ProblemURLTemplate)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
