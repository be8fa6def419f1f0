// 包 ingest：调度每周的离线数据刷新任务
package ingest

import (
	"context"
	"time"

	"geo-api/internal/logger"
)

// nextWeekdayAt：计算下一次指定星期与整点的时间点（不含当前已过时的当周）
// 约束：基于 now 所在时区；仅前推至未来时间
func nextWeekdayAt(now time.Time, day time.Weekday, hour int) time.Time {
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() == day {
			t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
			if t.After(now) {
				return t
			}
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
}

// RunWeekly：每周在 loc 时区的 day/hour 重新导入一次，直到 ctx 取消
// 背景：跟随上游数据集的发布节奏刷新 PostgreSQL；已运行的服务进程不受影响，重启后加载新数据。
// 约束：单次失败只记录日志，继续下一次调度
func RunWeekly(ctx context.Context, sink Sink, src string, opt Options, loc *time.Location, day time.Weekday, hour int) {
	l := logger.L()
	for {
		next := nextWeekdayAt(time.Now().In(loc), day, hour)
		l.Info("ingest_scheduled", "next", next)
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		if n, err := FetchAndImport(ctx, sink, src, opt); err != nil {
			l.Error("ingest_error", "err", err)
		} else {
			l.Info("ingest_refreshed", "records", n)
		}
	}
}
