package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/John-Robertt/lcharvest/internal/domain"
)

var reasonLabels = map[domain.Reason]string{
	domain.ReasonMissingSlug:      "缺少 slug",
	domain.ReasonHTTPStatus:       "HTTP 状态码异常",
	domain.ReasonTransport:        "网络错误",
	domain.ReasonDecode:           "响应解析失败",
	domain.ReasonMalformed:        "详情字段缺失",
	domain.ReasonNoQuestion:       "题目不存在",
	domain.ReasonEmptyContent:     "无题面内容",
	domain.ReasonEmptyDescription: "清洗后描述为空",
}

func reasonLabel(r domain.Reason) string {
	if s, ok := reasonLabels[r]; ok {
		return s
	}
	return string(r)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderSummary 输出一次富化运行的汇总表：总体计数 + 按原因细分的跳过/失败。
func renderSummary(w io.Writer, rr domain.RunReport, outputPath string) {
	t := newTable(w)
	t.SetTitle("富化结果")
	t.AppendHeader(table.Row{"项目", "数量"})
	t.AppendRows([]table.Row{
		{"免费题目", rr.Total},
		{"已处理", rr.Processed},
		{"成功", rr.Succeeded},
		{"跳过", rr.Skipped},
		{"失败", rr.Failed},
	})

	if len(rr.ByReason) > 0 {
		t.AppendSeparator()
		reasons := make([]domain.Reason, 0, len(rr.ByReason))
		for r := range rr.ByReason {
			reasons = append(reasons, r)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, r := range reasons {
			t.AppendRow(table.Row{fmt.Sprintf("  %s (%s)", reasonLabel(r), r), rr.ByReason[r]})
		}
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"进度保存", rr.Checkpoints})
	if rr.CheckpointErrors > 0 {
		t.AppendRow(table.Row{"进度保存失败", rr.CheckpointErrors})
	}
	t.AppendRow(table.Row{"输出文件", outputPath})
	if rr.Interrupted {
		t.SetCaption("运行被中断，输出文件为最近一次保存的进度")
	}
	t.Render()
}
