package timesheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidClock = errors.New("invalid time format")
	ErrInvalidDate  = errors.New("invalid date format")
)

// 允许不补零的小时/分钟，秒数部分只接受后缀形式（数据库中 time 列读出来带秒）
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})(?::\d{2})?$`)

// ParseClock 把 "9:05"、"09:05"、"09:05:00" 解析为零点起的分钟数，并返回补零后的 HH:MM
func ParseClock(s string) (int, string, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	return hour*60 + minute, FormatClock(hour*60 + minute), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatClock12h 用于 12 小时制的展示
func FormatClock12h(minutes int) string {
	hour, minute := minutes/60, minutes%60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// ParseDate 只接受 YYYY-MM-DD，结果是 UTC 零点，不带时区语义
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// DateOnly 去掉时间部分，用于比较日历日期
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
