package service

import (
	"errors"
	"testing"

	"availability-hub/internal/model"
)

func staticResolver(m map[string]struct {
	v   *model.AvailabilityVersion
	src EffectiveSource
}) ResolveFunc {
	return func(id string) (*model.AvailabilityVersion, EffectiveSource, error) {
		if e, ok := m[id]; ok {
			return e.v, e.src, nil
		}
		return nil, SourceNone, nil
	}
}

func TestBuildReportRows(t *testing.T) {
	comment := "line one\nline two"
	subjects := []ReportSubject{
		{ID: "a", Name: "Ana", Email: "ana@example.com"},
		{ID: "b", Name: "Ben", Email: "ben@example.com"},
		{ID: "c", Name: "Cid", Email: "cid@example.com"},
		{ID: "d", Name: "Dee", Email: "dee@example.com"},
	}
	resolve := staticResolver(map[string]struct {
		v   *model.AvailabilityVersion
		src EffectiveSource
	}{
		"a": {
			v: &model.AvailabilityVersion{
				VersionID: "va",
				Slots:     model.StringArray{"Monday-08:00", "Monday-08:30", "Monday-10:00"},
				Comment:   &comment,
				State:     model.VersionStateFinal,
			},
			src: SourceFinal,
		},
		"b": {
			v:   &model.AvailabilityVersion{VersionID: "vb", Slots: model.StringArray{"Tuesday-12:00"}},
			src: SourceLatestDraft,
		},
		"d": {
			v:   &model.AvailabilityVersion{VersionID: "vd", Slots: model.StringArray{}},
			src: SourceLatestDraft,
		},
	})

	rows, err := BuildReportRows("p-1", subjects, resolve)
	if err != nil {
		t.Fatalf("BuildReportRows 失败: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("期望 5 行，实际 %d: %+v", len(rows), rows)
	}

	// Ana：两个时间段，FINAL，换行被压平
	if rows[0].Status != ReportStatusFinal || rows[0].Day != "Monday" || rows[0].StartTime != "08:00" || rows[0].EndTime != "09:00" {
		t.Errorf("第 1 行不符: %+v", rows[0])
	}
	if rows[1].StartTime != "10:00" || rows[1].EndTime != "10:30" {
		t.Errorf("第 2 行不符: %+v", rows[1])
	}
	if rows[0].Comments != "line one line two" {
		t.Errorf("备注换行应替换为空格，实际 %q", rows[0].Comments)
	}
	if rows[0].PeriodID != "p-1" || rows[0].Email != "ana@example.com" {
		t.Errorf("身份信息不符: %+v", rows[0])
	}

	// Ben：草稿
	if rows[2].Status != ReportStatusDraft || rows[2].InstructorID != "b" || rows[2].EndTime != "12:30" {
		t.Errorf("第 3 行不符: %+v", rows[2])
	}

	// Cid：未提交
	if rows[3].Status != ReportStatusPending || rows[3].Day != "-" || rows[3].StartTime != "-" || rows[3].EndTime != "-" {
		t.Errorf("第 4 行应为 PENDING 占位: %+v", rows[3])
	}

	// Dee：空版本
	if rows[4].Status != ReportStatusDraft || rows[4].Day != NoAvailabilityDay || rows[4].StartTime != "-" {
		t.Errorf("第 5 行应为 NO_AVAILABILITY: %+v", rows[4])
	}
}

func TestBuildReportRows_NoSubjects(t *testing.T) {
	rows, err := BuildReportRows("p-1", nil, func(string) (*model.AvailabilityVersion, EffectiveSource, error) {
		t.Fatal("不应调用 resolve")
		return nil, SourceNone, nil
	})
	if err != nil || len(rows) != 0 {
		t.Errorf("期望空结果，实际 %v, %v", rows, err)
	}
}

func TestBuildReportRows_ResolveError(t *testing.T) {
	_, err := BuildReportRows("p-1", []ReportSubject{{ID: "a"}}, func(string) (*model.AvailabilityVersion, EffectiveSource, error) {
		return nil, SourceNone, errStorageDown
	})
	if !errors.Is(err, errStorageDown) {
		t.Errorf("期望透传解析错误，实际: %v", err)
	}
}

func TestFlattenComment(t *testing.T) {
	s := "a\r\nb\nc\rd"
	if got := flattenComment(&s); got != "a b c d" {
		t.Errorf("期望 %q，实际 %q", "a b c d", got)
	}
	if flattenComment(nil) != "" {
		t.Error("nil 备注应为空串")
	}
}
