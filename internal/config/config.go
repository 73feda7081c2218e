package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/John-Robertt/lcharvest/internal/infra/httpx"
	"github.com/John-Robertt/lcharvest/internal/infra/logx"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是可选配置文件名（位于 cwd）。
	FileName = "lcharvest.json"
	// LocalFileName 覆盖 FileName 中的同名字段；显式写出的零值（例如 proxy_url: ""）也会覆盖。
	LocalFileName = "lcharvest.local.json"
)

// 内置默认值：不提供任何配置文件时，行为完全由这些常量决定。
const (
	DefaultCatalogURL         = "https://leetcode.com/api/problems/algorithms/"
	DefaultGraphQLURL         = "https://leetcode.com/graphql"
	DefaultProblemURLTemplate = "https://leetcode.com/problems/%s/"
	DefaultCatalogFile        = "leetcode_algorithms_raw.json"
	DefaultOutputFile         = "leetcode_algorithms_processed.json"
	DefaultRequestDelay       = 700 * time.Millisecond
	DefaultRequestTimeout     = 20 * time.Second
	DefaultCheckpointInterval = 100
	DefaultLogLevel           = "info"
)

// FileConfig 对应 lcharvest.json 的解析结构（JSON5 语法，允许注释与尾逗号）。
// 时长字段使用 Go duration 字符串，例如 "700ms"、"20s"。
type FileConfig struct {
	CatalogURL         string `json:"catalog_url"`
	GraphQLURL         string `json:"graphql_url"`
	ProblemURLTemplate string `json:"problem_url_template"`
	UserAgent          string `json:"user_agent"`
	CatalogFile        string `json:"catalog_file"`
	OutputFile         string `json:"output_file"`
	RequestDelay       string `json:"request_delay"`
	RequestTimeout     string `json:"request_timeout"`
	CheckpointInterval int    `json:"checkpoint_interval"`
	ProxyURL           string `json:"proxy_url"`
	LogLevel           string `json:"log_level"`
}

// localOverlay 是 lcharvest.local.json 的解析结构。
// 指针字段区分“未写”与“写了零值”，这样本地文件可以清空主配置里的值。
type localOverlay struct {
	CatalogURL         *string `json:"catalog_url"`
	GraphQLURL         *string `json:"graphql_url"`
	ProblemURLTemplate *string `json:"problem_url_template"`
	UserAgent          *string `json:"user_agent"`
	CatalogFile        *string `json:"catalog_file"`
	OutputFile         *string `json:"output_file"`
	RequestDelay       *string `json:"request_delay"`
	RequestTimeout     *string `json:"request_timeout"`
	CheckpointInterval *int    `json:"checkpoint_interval"`
	ProxyURL           *string `json:"proxy_url"`
	LogLevel           *string `json:"log_level"`
}

func (o localOverlay) applyTo(fc *FileConfig) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&fc.CatalogURL, o.CatalogURL)
	setString(&fc.GraphQLURL, o.GraphQLURL)
	setString(&fc.ProblemURLTemplate, o.ProblemURLTemplate)
	setString(&fc.UserAgent, o.UserAgent)
	setString(&fc.CatalogFile, o.CatalogFile)
	setString(&fc.OutputFile, o.OutputFile)
	setString(&fc.RequestDelay, o.RequestDelay)
	setString(&fc.RequestTimeout, o.RequestTimeout)
	setString(&fc.ProxyURL, o.ProxyURL)
	setString(&fc.LogLevel, o.LogLevel)
	if o.CheckpointInterval != nil {
		fc.CheckpointInterval = *o.CheckpointInterval
	}
}

// EffectiveConfig 是合并并规范化后的最终配置。
// 构造后不再修改；各阶段的入口函数直接消费它，不读取任何全局状态。
type EffectiveConfig struct {
	CatalogURL         string
	GraphQLURL         string
	ProblemURLTemplate string
	UserAgent          string

	// CatalogPath 是阶段一的输出、阶段二的输入（绝对路径）。
	CatalogPath string
	// OutputPath 是 checkpoint 与最终结果共用的文件（绝对路径）。
	OutputPath string

	RequestDelay       time.Duration
	RequestTimeout     time.Duration
	CheckpointInterval int

	ProxyURL string
	LogLevel string

	// Sources 记录实际参与合并的配置文件（按优先级从低到高）。
	Sources []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
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

// Defaults 返回不读取任何文件时的配置（文件路径相对 cwd 解析）。
func Defaults(cwd string) (EffectiveConfig, error) {
	return build(cwd, defaultFileConfig(), "", nil)
}

// LoadEffective 读取 cwd 下的可选配置文件并与默认值合并为最终配置。
//
// 合并顺序（后者覆盖前者）：
// 1) 内置默认值
// 2) <cwd>/lcharvest.json
// 3) <cwd>/lcharvest.local.json
//
// 两个文件都不存在不算错误。
func LoadEffective(cwd string) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		fc      FileConfig
		sources []string
	)

	mainPath := filepath.Join(cwdAbs, FileName)
	mainFC, exists, err := readFileConfig(mainPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: mainPath, Err: err}
	}
	if exists {
		fc = mainFC
		sources = append(sources, mainPath)
	}

	localPath := filepath.Join(cwdAbs, LocalFileName)
	var overlay localOverlay
	exists, err = readJSON5(localPath, &overlay)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: localPath, Err: err}
	}
	if exists {
		overlay.applyTo(&fc)
		sources = append(sources, localPath)
	}

	// 仍为零值的字段由默认值补齐（mergo 只填充零值字段）。
	// 因此被本地文件清空的字段回落到默认值；proxy_url 的默认值为空，即关闭代理。
	if err := mergo.Merge(&fc, defaultFileConfig()); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: mainPath, Err: err}
	}

	cfgPath := mainPath
	if len(sources) > 0 {
		cfgPath = sources[len(sources)-1]
	}
	return build(cwdAbs, fc, cfgPath, sources)
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		CatalogURL:         DefaultCatalogURL,
		GraphQLURL:         DefaultGraphQLURL,
		ProblemURLTemplate: DefaultProblemURLTemplate,
		UserAgent:          httpx.DefaultUserAgent,
		CatalogFile:        DefaultCatalogFile,
		OutputFile:         DefaultOutputFile,
		RequestDelay:       DefaultRequestDelay.String(),
		RequestTimeout:     DefaultRequestTimeout.String(),
		CheckpointInterval: DefaultCheckpointInterval,
		LogLevel:           DefaultLogLevel,
	}
}

func build(cwd string, fc FileConfig, cfgPath string, sources []string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return invalid(err)
	}

	for name, raw := range map[string]string{
		"catalog_url": fc.CatalogURL,
		"graphql_url": fc.GraphQLURL,
	} {
		if err := validateHTTPURL(raw); err != nil {
			return invalid(fmt.Errorf("%s %w", name, err))
		}
	}

	tmpl := strings.TrimSpace(fc.ProblemURLTemplate)
	if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
		return invalid(fmt.Errorf("problem_url_template 必须且只能包含一个 %%s：%q", tmpl))
	}

	delay, err := time.ParseDuration(strings.TrimSpace(fc.RequestDelay))
	if err != nil {
		return invalid(fmt.Errorf("request_delay 无效：%w", err))
	}
	if delay < 0 {
		return invalid(fmt.Errorf("request_delay 不能为负：%s", delay))
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(fc.RequestTimeout))
	if err != nil {
		return invalid(fmt.Errorf("request_timeout 无效：%w", err))
	}
	if timeout <= 0 {
		return invalid(fmt.Errorf("request_timeout 必须为正：%s", timeout))
	}

	if fc.CheckpointInterval < 1 {
		return invalid(fmt.Errorf("checkpoint_interval 必须 >= 1，实际 %d", fc.CheckpointInterval))
	}

	proxyURL := strings.TrimSpace(fc.ProxyURL)
	if proxyURL != "" {
		if err := validateHTTPURL(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy_url %w", err))
		}
	}

	if _, err := logx.ParseLevel(fc.LogLevel); err != nil {
		return invalid(err)
	}

	catalogPath := absCleanFrom(cwdAbs, fc.CatalogFile)
	outputPath := absCleanFrom(cwdAbs, fc.OutputFile)
	if catalogPath == "" || outputPath == "" {
		return invalid(errors.New("catalog_file / output_file 不能为空"))
	}
	if catalogPath == outputPath {
		return invalid(fmt.Errorf("catalog_file 与 output_file 不能是同一个文件：%q", catalogPath))
	}

	return EffectiveConfig{
		CatalogURL:         strings.TrimSpace(fc.CatalogURL),
		GraphQLURL:         strings.TrimSpace(fc.GraphQLURL),
		ProblemURLTemplate: tmpl,
		UserAgent:          strings.TrimSpace(fc.UserAgent),
		CatalogPath:        catalogPath,
		OutputPath:         outputPath,
		RequestDelay:       delay,
		RequestTimeout:     timeout,
		CheckpointInterval: fc.CheckpointInterval,
		ProxyURL:           proxyURL,
		LogLevel:           strings.ToLower(strings.TrimSpace(fc.LogLevel)),
		Sources:            append([]string(nil), sources...),
	}, nil
}

func validateHTTPURL(raw string) error {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("无效：%q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON5 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	exists, err = readJSON5(path, &fc)
	if err != nil {
		return FileConfig{}, exists, err
	}
	return fc, exists, nil
}

func readJSON5(path string, v any) (exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json5.Unmarshal(b, v); err != nil {
		return true, err
	}
	return true, nil
}
