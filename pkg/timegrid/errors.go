package timegrid

import (
	"errors"
	"fmt"
)

// Kind 错误类别，供调用方按类别本地化提示文案，无需解析 Error() 文本
type Kind string

const (
	KindInvalidDay    Kind = "invalid_day"
	KindOutOfRange    Kind = "out_of_range"
	KindInvalidSlot   Kind = "invalid_slot"
	KindIsolatedBlock Kind = "isolated_block"
)

// MinRunSlots 每个连续段的最少格数（2 小时）
const MinRunSlots = 4

// InvalidDayError 星期不在 Days 中
type InvalidDayError struct {
	Day string
}

func (e *InvalidDayError) Error() string { return fmt.Sprintf("无效的星期: %q", e.Day) }

// Kind 错误类别
func (e *InvalidDayError) Kind() Kind { return KindInvalidDay }

// OutOfRangeError 时间格式错误、未对齐半小时或超出 07:30~22:00；Index 为 -1 表示由时间字符串触发
type OutOfRangeError struct {
	Value string
	Index int
}

func (e *OutOfRangeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("时间格序号超出范围: %d（有效范围 0-%d）", e.Index, SlotsPerDay-1)
	}
	return fmt.Sprintf("时间超出范围或未按半小时对齐: %q", e.Value)
}

// Kind 错误类别
func (e *OutOfRangeError) Kind() Kind { return KindOutOfRange }

// InvalidSlotError 指明出错的 TimeSlotId，Err 为 InvalidDayError 或 OutOfRangeError
type InvalidSlotError struct {
	Slot string
	Err  error
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("无效的时间格 %q: %v", e.Slot, e.Err)
}

func (e *InvalidSlotError) Unwrap() error { return e.Err }

// Kind 错误类别
func (e *InvalidSlotError) Kind() Kind { return KindInvalidSlot }

// IsolatedBlockError 某天存在不足 MinRunSlots 格的连续段
type IsolatedBlockError struct {
	Day    string
	Start  string // 该段开始时间 "HH:MM"
	Length int    // 该段格数
}

func (e *IsolatedBlockError) Error() string {
	return fmt.Sprintf("%s %s 起存在孤立时段（连续 %d 格），每段至少需连续 2 小时（%d 格）",
		e.Day, e.Start, e.Length, MinRunSlots)
}

// Kind 错误类别
func (e *IsolatedBlockError) Kind() Kind { return KindIsolatedBlock }

// KindOf 提取错误类别；非本包错误返回空字符串
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// Violation 校验失败的结构化描述（JSON 友好）
type Violation struct {
	Kind    Kind   `json:"kind"`
	Reason  Kind   `json:"reason,omitempty"` // invalid_slot 的具体原因
	Slot    string `json:"slot,omitempty"`
	Day     string `json:"day,omitempty"`
	Time    string `json:"time,omitempty"`
	Length  int    `json:"length,omitempty"`
	Message string `json:"message"`
}

// Describe 将本包错误展开为 Violation
func Describe(err error) Violation {
	v := Violation{Kind: KindOf(err), Message: err.Error()}

	var slotErr *InvalidSlotError
	if errors.As(err, &slotErr) {
		v.Slot = slotErr.Slot
		v.Reason = KindOf(slotErr.Err)
		var dayErr *InvalidDayError
		if errors.As(slotErr.Err, &dayErr) {
			v.Day = dayErr.Day
		}
		return v
	}

	var blockErr *IsolatedBlockError
	if errors.As(err, &blockErr) {
		v.Day = blockErr.Day
		v.Time = blockErr.Start
		v.Length = blockErr.Length
	}
	return v
}
