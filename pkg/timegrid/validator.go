package timegrid

import "sort"

// ── 连续性校验 ──
//
// 规则：按星期分组后，每个极大连续段（序号严格相邻）都至少包含 MinRunSlots 格；
// 段与段之间的空档不受限制。空集合视为合法（"本期无可用时间"）。
// 前端预校验与服务端权威校验共用本实现。

// Validate 校验一组 TimeSlotId，返回第一个违规项；合法返回 nil
//
// 报错顺序确定：先按输入顺序报告无法解析的时间格，再按星期顺序、段开始时间升序报告孤立时段。
func Validate(slots []string) error {
	if errs := ValidateAll(slots); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ValidateAll 返回全部违规项；空切片表示合法
func ValidateAll(slots []string) []error {
	var errs []error

	byDay, parseErrs := groupByDay(slots)
	errs = append(errs, parseErrs...)

	for _, day := range Days {
		for _, run := range runs(byDay[day]) {
			if len(run) >= MinRunSlots {
				continue
			}
			start, _ := IndexToTime(run[0])
			errs = append(errs, &IsolatedBlockError{Day: day, Start: start, Length: len(run)})
		}
	}
	return errs
}

// Normalize 去重并按展示顺序排序，得到持久化使用的规范形式
func Normalize(slots []string) ([]string, error) {
	byDay, parseErrs := groupByDay(slots)
	if len(parseErrs) > 0 {
		return nil, parseErrs[0]
	}
	out := make([]string, 0, len(slots))
	for _, day := range Days {
		for _, idx := range byDay[day] {
			out = append(out, Slot{Day: day, Index: idx}.ID())
		}
	}
	return out, nil
}

// groupByDay 解析并按星期分组；每天的序号已去重并升序
func groupByDay(slots []string) (map[string][]int, []error) {
	var errs []error
	seen := make(map[Slot]struct{}, len(slots))
	byDay := make(map[string][]int)

	for _, id := range slots {
		s, err := ParseSlotID(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		byDay[s.Day] = append(byDay[s.Day], s.Index)
	}

	for _, indices := range byDay {
		sort.Ints(indices)
	}
	return byDay, errs
}

// runs 将升序序号切分为极大连续段
func runs(indices []int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	var out [][]int
	begin := 0
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			out = append(out, indices[begin:i])
			begin = i
		}
	}
	return append(out, indices[begin:])
}
