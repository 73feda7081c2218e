package domain

import (
	"fmt"
	"time"
)

// Status 是单条目录条目的处理结果分类。
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped" // 数据缺失：预期内，静默跳过
	StatusFailed  Status = "failed"  // 网络/解析失败：记录日志后跳过
)

// Reason 细分跳过/失败的原因。
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonMissingSlug      Reason = "missing_slug"
	ReasonHTTPStatus       Reason = "http_status"
	ReasonTransport        Reason = "transport"
	ReasonDecode           Reason = "decode"
	ReasonMalformed        Reason = "malformed"
	ReasonNoQuestion       Reason = "no_question"
	ReasonEmptyContent     Reason = "empty_content"
	ReasonEmptyDescription Reason = "empty_description"
)

// Outcome 是一条目录条目走完富化流程后的结果。
//
// 约束：Status==StatusOK 时 Detail 非空；否则 Detail 为空、Reason 非空。
type Outcome struct {
	Index  int // 1-based，在过滤后序列中的位置
	Slug   string
	Status Status
	Reason Reason
	Err    error
	Detail *ProblemDetail
}

func (o Outcome) String() string {
	switch {
	case o.Status == StatusOK:
		return fmt.Sprintf("#%d %s ok", o.Index, o.Slug)
	case o.Err != nil:
		return fmt.Sprintf("#%d %s %s(%s): %v", o.Index, o.Slug, o.Status, o.Reason, o.Err)
	default:
		return fmt.Sprintf("#%d %s %s(%s)", o.Index, o.Slug, o.Status, o.Reason)
	}
}

// RunReport 汇总一次富化运行。
type RunReport struct {
	Total     int // 过滤后的条目数
	Processed int // 已走完的条目数（含跳过/失败）
	Succeeded int
	Skipped   int
	Failed    int
	ByReason  map[Reason]int

	Checkpoints      int
	CheckpointErrors int

	// Interrupted 表示 ctx 被取消，循环提前结束（最终结果不会写盘）。
	Interrupted bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Add 把一条 Outcome 计入汇总。
func (r *RunReport) Add(o Outcome) {
	r.Processed++
	switch o.Status {
	case StatusOK:
		r.Succeeded++
		return
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	if r.ByReason == nil {
		r.ByReason = make(map[Reason]int)
	}
	r.ByReason[o.Reason]++
}

// Finalize 把时间统一为 UTC。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
}
