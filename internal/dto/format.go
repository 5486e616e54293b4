package dto

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Ago 相对时间，例如 "3 hours ago"
func Ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Count 千分位数字
func Count(n int64) string {
	return humanize.Comma(n)
}

// Clock 把时长格式化为 1h02m03s 形式；负数按 0 显示
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
