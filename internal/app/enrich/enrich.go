package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/lcharvest/internal/catalog"
	"github.com/John-Robertt/lcharvest/internal/clean"
	"github.com/John-Robertt/lcharvest/internal/config"
	"github.com/John-Robertt/lcharvest/internal/domain"
	"github.com/John-Robertt/lcharvest/internal/infra/store"
	"github.com/John-Robertt/lcharvest/internal/leetcode"
)

// ErrNoData 表示目录加载成功但过滤后没有任何可处理的题目。
var ErrNoData = errors.New("没有可处理的题目")

// 通过可替换的函数指针，让测试不必真的等待。
var sleepFunc = sleepCtx

// QuestionSource 按 slug 查询题目详情。
type QuestionSource interface {
	FetchQuestion(ctx context.Context, slug string) (*leetcode.Question, []leetcode.GraphQLError, error)
}

// Execute 是阶段二的入口：加载目录 -> 逐条富化 -> 写最终结果。
//
// 返回值：
// - 加载失败：*store.Error（不存在/无法解析），不写任何文件
// - 无数据：ErrNoData，不写任何文件
// - ctx 取消：ctx.Err()，不写最终结果（已写入的 checkpoint 保持不变）
// - 最终写盘失败：*store.Error
func Execute(ctx context.Context, eff config.EffectiveConfig, src QuestionSource, st store.Store, logger *zap.Logger, obs Observer) (domain.RunReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := catalog.Load(st, logger)
	if err != nil {
		return domain.RunReport{}, err
	}
	if len(entries) == 0 {
		return domain.RunReport{}, ErrNoData
	}

	details, rr := Run(ctx, eff, entries, src, st, logger, obs)
	if rr.Interrupted {
		return rr, ctx.Err()
	}

	if err := st.WriteDetails(details); err != nil {
		return rr, err
	}
	logger.Info("处理完成", zap.Int("saved", len(details)), zap.String("path", st.OutputPath))
	return rr, nil
}

// Run 严格串行地处理每个条目，返回成功的记录（保持输入顺序）与汇总。
//
// 约束：
// - 单条失败只跳过该条，不中断循环
// - 每条处理完（无论成败）都等待 RequestDelay；缺少 slug 的条目除外
// - 第 N*CheckpointInterval 个条目处理完后整体覆盖写盘（仅当条目总数 > CheckpointInterval）
func Run(ctx context.Context, eff config.EffectiveConfig, entries []domain.CatalogEntry, src QuestionSource, st store.Store, logger *zap.Logger, obs Observer) ([]domain.ProblemDetail, domain.RunReport) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if obs == nil {
		obs = nopObserver{}
	}

	total := len(entries)
	interval := eff.CheckpointInterval
	if interval < 1 {
		interval = config.DefaultCheckpointInterval
	}

	rr := domain.RunReport{Total: total, StartedAt: time.Now()}
	details := make([]domain.ProblemDetail, 0, total)

	logger.Info("开始获取题目详情", zap.Int("total", total))
	obs.OnStart(total)

	for i, e := range entries {
		idx := i + 1
		if ctx.Err() != nil {
			rr.Interrupted = true
			break
		}

		if e.Slug == "" {
			o := domain.Outcome{Index: idx, Status: domain.StatusSkipped, Reason: domain.ReasonMissingSlug}
			logger.Warn("条目缺少 slug，跳过", zap.Int("index", idx), zap.ByteString("entry", e.Raw))
			rr.Add(o)
			obs.OnItemDone(o, total, 0)
			continue
		}

		started := time.Now()
		o := processOne(ctx, src, eff.ProblemURLTemplate, idx, e.Slug)
		reportOutcome(logger, o)
		rr.Add(o)
		if o.Detail != nil {
			details = append(details, *o.Detail)
		}
		obs.OnItemDone(o, total, time.Since(started))

		if err := sleepFunc(ctx, eff.RequestDelay); err != nil {
			rr.Interrupted = true
			break
		}

		if idx%interval == 0 && total > interval {
			err := st.WriteDetails(details)
			if err != nil {
				rr.CheckpointErrors++
				logger.Error("保存进度失败", zap.Int("done", idx), zap.Error(err))
			} else {
				rr.Checkpoints++
				logger.Info("进度已保存", zap.Int("done", idx), zap.Int("saved", len(details)))
			}
			obs.OnCheckpoint(idx, len(details), err)
		}
	}

	if rr.Interrupted {
		logger.Warn("运行被中断，最终结果不会写盘",
			zap.Int("done", rr.Processed),
			zap.Int("total", total),
			zap.Int("checkpoints", rr.Checkpoints),
		)
	}

	rr.FinishedAt = time.Now()
	rr.Finalize()
	return details, rr
}

// processOne 查询并清洗单个条目。所有失败都折叠为 Outcome，不向上抛。
func processOne(ctx context.Context, src QuestionSource, urlTemplate string, idx int, slug string) domain.Outcome {
	o := domain.Outcome{Index: idx, Slug: slug}
	fail := func(r domain.Reason, err error) domain.Outcome {
		o.Status = domain.StatusFailed
		o.Reason = r
		o.Err = err
		return o
	}
	skip := func(r domain.Reason, err error) domain.Outcome {
		o.Status = domain.StatusSkipped
		o.Reason = r
		o.Err = err
		return o
	}

	q, gqlErrs, err := src.FetchQuestion(ctx, slug)
	if err != nil {
		switch {
		case leetcode.IsHTTPStatus(err):
			return fail(domain.ReasonHTTPStatus, err)
		case leetcode.IsDecode(err):
			return fail(domain.ReasonDecode, err)
		default:
			return fail(domain.ReasonTransport, err)
		}
	}

	if q == nil {
		return skip(domain.ReasonNoQuestion, joinGraphQLErrors(gqlErrs))
	}
	if q.Content == nil || *q.Content == "" {
		return skip(domain.ReasonEmptyContent, nil)
	}

	desc := clean.Description(*q.Content)
	if desc == "" {
		return skip(domain.ReasonEmptyDescription, nil)
	}

	if len(q.FrontendID) == 0 || q.Title == nil || q.Difficulty == nil {
		return fail(domain.ReasonMalformed, fmt.Errorf("详情缺少字段（questionFrontendId/title/difficulty）"))
	}
	var id domain.FrontendID
	if err := json.Unmarshal(q.FrontendID, &id); err != nil {
		return fail(domain.ReasonMalformed, err)
	}

	o.Status = domain.StatusOK
	o.Detail = &domain.ProblemDetail{
		ID:          id,
		Title:       *q.Title,
		Difficulty:  domain.Difficulty(*q.Difficulty),
		Description: desc,
		URL:         fmt.Sprintf(urlTemplate, slug),
	}
	return o
}

func reportOutcome(logger *zap.Logger, o domain.Outcome) {
	switch o.Status {
	case domain.StatusOK:
		if !o.Detail.Difficulty.Known() {
			logger.Warn("未知难度标签，原样保留", zap.String("slug", o.Slug), zap.String("difficulty", string(o.Detail.Difficulty)))
		}
	case domain.StatusFailed:
		msg := "获取详情失败"
		switch o.Reason {
		case domain.ReasonHTTPStatus:
			msg = "详情接口返回 HTTP 错误"
		case domain.ReasonTransport:
			msg = "详情请求网络错误"
		case domain.ReasonDecode:
			msg = "详情响应不是合法 JSON"
		case domain.ReasonMalformed:
			msg = "详情数据不完整"
		}
		logger.Warn(msg, zap.String("slug", o.Slug), zap.Int("index", o.Index), zap.Error(o.Err))
	case domain.StatusSkipped:
		fields := []zap.Field{zap.String("slug", o.Slug), zap.String("reason", string(o.Reason))}
		if o.Err != nil {
			fields = append(fields, zap.Error(o.Err))
		}
		logger.Debug("无可用描述，跳过", fields...)
	}
}

func joinGraphQLErrors(errs []leetcode.GraphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if m := strings.TrimSpace(e.Message); m != "" {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
}

// sleepCtx 等待 d；ctx 先结束则返回 ctx.Err()。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
