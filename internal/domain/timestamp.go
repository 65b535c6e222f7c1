package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// 后端日志里的时间戳格式并不统一，有的带时区有的不带
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 MST",
}

// 不带时区的按显示时区的墙上时间理解
var wallClockLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

const wallClockFormat = "2006-01-02T15:04:05.999999"

// Timestamp 宽松解析的 ISO 时间；无法解析时保留原文
type Timestamp struct {
	Time time.Time
	Raw  string
	// WallClock 原文不带时区，Time 只是暂存的墙上时间，显示时用 In 换到目标时区
	WallClock bool
}

// ParseTimestamp 解码时不知道显示时区，不带时区的先按 UTC 暂存
func ParseTimestamp(s string) Timestamp {
	return ParseTimestampIn(s, time.UTC)
}

// ParseTimestampIn 带时区的按原文时区解析，不带时区的按 loc 解析
func ParseTimestampIn(s string, loc *time.Location) Timestamp {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Raw: s}
		}
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return Timestamp{Time: t, Raw: s, WallClock: true}
		}
	}
	return Timestamp{Raw: s}
}

// In 换到 loc 显示。不带时区的原文保持墙上时间不变。
func (t Timestamp) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if t.WallClock {
		y, mo, d := t.Time.Date()
		h, mi, sec := t.Time.Clock()
		return time.Date(y, mo, d, h, mi, sec, t.Time.Nanosecond(), loc)
	}
	return t.Time.In(loc)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return json.Marshal(t.Raw)
	}
	if t.WallClock {
		return json.Marshal(t.Time.Format(wallClockFormat))
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// IsZero 没有可用时间
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}
