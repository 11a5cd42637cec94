package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

// ── 周时间轴定义 ──
//
// 时间轴以半小时为粒度，每天 07:30 起始、22:30 结束，共 30 格；
// 内部一律使用"自零点起的分钟数"整数运算，不做任何浮点换算。

const (
	// SlotMinutes 单格时长（分钟）
	SlotMinutes = 30
	// FirstSlotMinutes 首格开始时间 07:30
	FirstSlotMinutes = 7*60 + 30
	// SlotsPerDay 每天格数（07:30 ~ 22:00 的开始时间）
	SlotsPerDay = 30
	// DayEndMinutes 时间轴结束时间 22:30（不可作为开始时间）
	DayEndMinutes = FirstSlotMinutes + SlotsPerDay*SlotMinutes

	// slotSeparator TimeSlotId 中日期与时间的分隔符："Monday-08:00"
	slotSeparator = "-"
)

// Days 可提交的星期（固定顺序，不含周日）
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var dayOrder = func() map[string]int {
	m := make(map[string]int, len(Days))
	for i, d := range Days {
		m[d] = i
	}
	return m
}()

// Slot 已解析的时间格
type Slot struct {
	Day   string
	Index int
}

// ID 还原为线上格式 "<Day>-<HH:MM>"
func (s Slot) ID() string {
	return s.Day + slotSeparator + FormatClock(s.Minutes())
}

// Minutes 该格开始时间（自零点起的分钟数）
func (s Slot) Minutes() int {
	return FirstSlotMinutes + s.Index*SlotMinutes
}

// DayIndex 星期在 Days 中的位置；未知星期返回 -1
func DayIndex(day string) int {
	if i, ok := dayOrder[day]; ok {
		return i
	}
	return -1
}

// TimeToIndex 将 "HH:MM" 转为自 07:30 起的格序号（0..29）
func TimeToIndex(hhmm string) (int, error) {
	minutes, err := ParseClock(hhmm)
	if err != nil {
		return 0, err
	}
	if minutes < FirstSlotMinutes || minutes >= DayEndMinutes {
		return 0, &OutOfRangeError{Value: hhmm, Index: -1}
	}
	offset := minutes - FirstSlotMinutes
	if offset%SlotMinutes != 0 {
		return 0, &OutOfRangeError{Value: hhmm, Index: -1}
	}
	return offset / SlotMinutes, nil
}

// IndexToTime TimeToIndex 的逆运算，序号越界返回 OutOfRangeError
func IndexToTime(index int) (string, error) {
	if index < 0 || index >= SlotsPerDay {
		return "", &OutOfRangeError{Value: strconv.Itoa(index), Index: index}
	}
	return FormatClock(FirstSlotMinutes + index*SlotMinutes), nil
}

// ParseClock 严格解析 "HH:MM"（两位小时、两位分钟）为分钟数
func ParseClock(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' || !isDigits(hhmm[:2]) || !isDigits(hhmm[3:]) {
		return 0, &OutOfRangeError{Value: hhmm, Index: -1}
	}
	h, errH := strconv.Atoi(hhmm[:2])
	m, errM := strconv.Atoi(hhmm[3:])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, &OutOfRangeError{Value: hhmm, Index: -1}
	}
	return h*60 + m, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatClock 分钟数格式化为 "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseSlotID 解析 "<Day>-<HH:MM>"
// 星期非法返回 InvalidDayError，时间非法返回 OutOfRangeError，均由 InvalidSlotError 包装
func ParseSlotID(id string) (Slot, error) {
	day, clock, found := strings.Cut(id, slotSeparator)
	if !found {
		return Slot{}, &InvalidSlotError{Slot: id, Err: &OutOfRangeError{Value: id, Index: -1}}
	}
	if DayIndex(day) < 0 {
		return Slot{}, &InvalidSlotError{Slot: id, Err: &InvalidDayError{Day: day}}
	}
	idx, err := TimeToIndex(clock)
	if err != nil {
		return Slot{}, &InvalidSlotError{Slot: id, Err: err}
	}
	return Slot{Day: day, Index: idx}, nil
}

// Slots 按展示顺序（先星期、后时间）枚举整个时间轴
func Slots() []Slot {
	all := make([]Slot, 0, len(Days)*SlotsPerDay)
	for _, d := range Days {
		for i := 0; i < SlotsPerDay; i++ {
			all = append(all, Slot{Day: d, Index: i})
		}
	}
	return all
}

// Times 一天内所有可选的开始时间
func Times() []string {
	times := make([]string, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		times = append(times, FormatClock(FirstSlotMinutes+i*SlotMinutes))
	}
	return times
}
