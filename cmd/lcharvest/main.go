package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/John-Robertt/lcharvest/internal/app/enrich"
	"github.com/John-Robertt/lcharvest/internal/catalog"
	"github.com/John-Robertt/lcharvest/internal/config"
	"github.com/John-Robertt/lcharvest/internal/infra/logx"
	"github.com/John-Robertt/lcharvest/internal/infra/store"
	"github.com/John-Robertt/lcharvest/internal/leetcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		stop()
		os.Exit(1)
	}

	root := newRootCmd(cwd, os.Stdout, os.Stderr)
	err = root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd 构造命令树。阶段内的错误只记录日志、不改变退出码；
// 只有配置/初始化失败才返回 error（退出码 1）。
func newRootCmd(cwd string, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "lcharvest",
		Short: "拉取 LeetCode 算法题目录，并逐题补全清洗后的描述",
		Long: `lcharvest 分两步运行：
  lcharvest fetch    拉取题目目录，保存到 leetcode_algorithms_raw.json
  lcharvest enrich   读取目录、过滤付费题，逐题查询详情并写入 leetcode_algorithms_processed.json

配置（可选）：当前目录下的 lcharvest.json 与 lcharvest.local.json（JSON5）。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "拉取题目目录并原样保存",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cwd, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			if _, err := catalog.Fetch(cmd.Context(), e.client, e.store, e.logger); err != nil {
				reportError(e.logger, err)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "enrich",
		Short: "逐题查询详情、清洗描述并保存（定期保存进度）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cwd, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			progressW, interactive := pickProgressWriter()
			var obs enrich.Observer
			if interactive {
				ui := newProgressUI(progressW)
				defer ui.Stop()
				obs = ui
			}

			rr, err := enrich.Execute(cmd.Context(), e.eff, e.client, e.store, e.logger, obs)
			if err != nil {
				reportError(e.logger, err)
			}
			if rr.Total > 0 {
				renderSummary(stdout, rr, e.store.OutputPath)
			}
			return nil
		},
	})

	return root
}

type env struct {
	eff    config.EffectiveConfig
	logger *zap.Logger
	client *leetcode.Client
	store  store.Store
}

func setup(cwd string, stderr io.Writer) (env, error) {
	eff, err := config.LoadEffective(cwd)
	if err != nil {
		fmt.Fprintf(stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return env{}, err
	}

	logger, err := logx.NewWithWriter(eff.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "初始化日志失败：%v\n", err)
		return env{}, err
	}
	for _, src := range eff.Sources {
		logger.Debug("已读取配置文件", zap.String("path", src))
	}

	client, err := leetcode.New(eff, logger)
	if err != nil {
		logger.Error("初始化 HTTP 客户端失败", zap.Error(err))
		return env{}, err
	}

	return env{
		eff:    eff,
		logger: logger,
		client: client,
		store:  store.New(eff.CatalogPath, eff.OutputPath),
	}, nil
}

// describeError 把阶段错误映射为面向用户的说明与日志级别。
func describeError(err error) (string, zapcore.Level) {
	switch {
	case errors.Is(err, catalog.ErrEmptyCatalog):
		return "接口响应中没有题目数据，未写入文件", zapcore.WarnLevel
	case errors.Is(err, enrich.ErrNoData):
		return "目录中没有可处理的免费题目，未写入文件", zapcore.WarnLevel
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "已中断：最终结果未写盘，最近一次保存的进度保持不变", zapcore.WarnLevel
	case leetcode.IsHTTPStatus(err):
		return "请求失败：服务端返回了非成功状态码", zapcore.ErrorLevel
	case leetcode.IsTransport(err):
		return "请求失败：网络错误", zapcore.ErrorLevel
	case leetcode.IsDecode(err):
		return "响应不是合法 JSON", zapcore.ErrorLevel
	}

	switch store.Code(err) {
	case store.ErrCodeNotFound:
		return "题目目录文件不存在，请先运行 lcharvest fetch", zapcore.ErrorLevel
	case store.ErrCodeInvalid:
		return "题目目录文件无法解析", zapcore.ErrorLevel
	case store.ErrCodeWriteFailed:
		return "写入文件失败", zapcore.ErrorLevel
	}
	return "运行失败", zapcore.ErrorLevel
}

func reportError(logger *zap.Logger, err error) {
	msg, lvl := describeError(err)
	if ce := logger.Check(lvl, msg); ce != nil {
		ce.Write(zap.Error(err))
	}
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr，与日志同一通道。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
