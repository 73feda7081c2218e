package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/lcharvest/internal/app/enrich"
	"github.com/John-Robertt/lcharvest/internal/domain"
)

var _ enrich.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的逐条进度输出。
//
// - 事件驱动：enrich 层只发事件，CLI 决定如何展示
// - keepalive：单个请求迟迟不返回时也定期输出一行
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int
	skip  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.startedAt = now
	p.total = total
	fmt.Fprintf(p.w, "[%s] 开始处理 %d 道免费题目\n", now.Format("15:04:05"), total)
	p.lastPrinted = now

	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnItemDone(o domain.Outcome, total int, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = o.Index
	p.total = total

	slug := o.Slug
	if slug == "" {
		slug = "<no-slug>"
	}

	switch o.Status {
	case domain.StatusOK:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] %s OK %s (%s)\n",
			o.Index, total, slug, o.Detail.Difficulty, formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		p.skip++
		fmt.Fprintf(p.w, "[%d/%d] %s SKIP %s (%s)\n",
			o.Index, total, slug, reasonLabel(o.Reason), formatShortDuration(dur),
		)
	case domain.StatusFailed:
		p.fail++
		msg := ""
		if o.Err != nil {
			msg = ": " + truncate(o.Err.Error(), 160)
		}
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s%s (%s)\n",
			o.Index, total, slug, o.Reason, msg, formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnCheckpoint(done, saved int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		fmt.Fprintf(p.w, "保存进度失败: done=%d/%d: %s\n", done, p.total, truncate(err.Error(), 160))
	} else {
		fmt.Fprintf(p.w, "进度已保存: done=%d/%d saved=%d elapsed=%s\n",
			done, p.total, saved, formatElapsed(time.Since(p.startedAt)),
		)
	}
	p.lastPrinted = time.Now()
}

// Stop 停止 keepalive；可重复调用。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stopCh := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d skip=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, p.skip, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

// truncate 按 rune 截断，超出部分用省略号代替。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func formatShortDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
