package timegrid

// Range 连续可用区间 [Start, End)，时间均为 "HH:MM"
type Range struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Condense 将离散时间格合并为连续区间
//
// 同一天内区间按时间升序；不同星期按 Days 顺序输出。
// 重复的时间格只计一次；存在无法解析的时间格时返回 InvalidSlotError。
func Condense(slots []string) ([]Range, error) {
	byDay, parseErrs := groupByDay(slots)
	if len(parseErrs) > 0 {
		return nil, parseErrs[0]
	}

	var out []Range
	for _, day := range Days {
		indices := byDay[day]
		if len(indices) == 0 {
			continue
		}

		start := minutesOf(indices[0])
		prev := start
		for _, idx := range indices[1:] {
			m := minutesOf(idx)
			if m != prev+SlotMinutes {
				out = append(out, newRange(day, start, prev+SlotMinutes))
				start = m
			}
			prev = m
		}
		out = append(out, newRange(day, start, prev+SlotMinutes))
	}
	return out, nil
}

func minutesOf(index int) int {
	return FirstSlotMinutes + index*SlotMinutes
}

func newRange(day string, startMin, endMin int) Range {
	return Range{Day: day, Start: FormatClock(startMin), End: FormatClock(endMin)}
}
