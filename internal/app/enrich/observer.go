package enrich

import (
	"time"

	"github.com/John-Robertt/lcharvest/internal/domain"
)

// Observer 用于把“运行进度/条目结果/checkpoint”从核心循环中解耦出来。
//
// 约束：enrich 包只负责发事件，不做任何终端输出；事件在循环所在的 goroutine 上同步触发。
type Observer interface {
	// OnStart 在循环开始前调用。
	OnStart(total int)
	// OnItemDone 在每个条目处理完成后调用（含跳过/失败）。
	OnItemDone(o domain.Outcome, total int, dur time.Duration)
	// OnCheckpoint 在每次 checkpoint 写盘后调用；err 非空表示写盘失败。
	OnCheckpoint(done, saved int, err error)
}

type nopObserver struct{}

func (nopObserver) OnStart(int) {}
func (nopObserver) OnItemDone(domain.Outcome, int, time.Duration) {}
func (nopObserver) OnCheckpoint(int, int, error) {}
