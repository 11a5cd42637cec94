package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"availability-hub/pkg/timegrid"
)

func TestEffectiveResolver_None(t *testing.T) {
	repos := newTestRepos()
	r := NewEffectiveResolver(repos.repo, zap.NewNop())

	v, src, err := r.Resolve(context.Background(), "inst-1", "p-1")
	if err != nil {
		t.Fatalf("Resolve 不应报错: %v", err)
	}
	if v != nil || src != SourceNone {
		t.Errorf("期望 (nil, NONE)，实际 (%v, %s)", v, src)
	}
	if repos.availability.getFinalCalls+repos.availability.getLatestCalls > 2 {
		t.Error("Resolve 至多两次查询")
	}
}

func TestEffectiveResolver_LatestDraft(t *testing.T) {
	svc, repos := setupTestAvailabilityService()
	r := NewEffectiveResolver(repos.repo, zap.NewNop())
	ctx := context.Background()

	mustCreate(t, svc, "inst-1", "p-1", fourSlots, nil)
	latest := mustCreate(t, svc, "inst-1", "p-1", nil, nil)

	v, src, err := r.Resolve(ctx, "inst-1", "p-1")
	if err != nil {
		t.Fatalf("Resolve 不应报错: %v", err)
	}
	if src != SourceLatestDraft || v.VersionID != latest.VersionID {
		t.Errorf("期望最新草稿，实际 (%v, %s)", v, src)
	}
}

func TestEffectiveResolver_FinalWinsOverNewerDraft(t *testing.T) {
	svc, repos := setupTestAvailabilityService()
	r := NewEffectiveResolver(repos.repo, zap.NewNop())
	ctx := context.Background()

	final := mustCreate(t, svc, "inst-1", "p-1", fourSlots, nil)
	mustMarkFinal(t, svc, final.VersionID, "inst-1")
	mustCreate(t, svc, "inst-1", "p-1", nil, nil)

	repos.availability.getFinalCalls, repos.availability.getLatestCalls = 0, 0
	v, src, err := r.Resolve(ctx, "inst-1", "p-1")
	if err != nil {
		t.Fatalf("Resolve 不应报错: %v", err)
	}
	if src != SourceFinal || v.VersionID != final.VersionID {
		t.Errorf("期望最终版本，实际 (%v, %s)", v, src)
	}
	if repos.availability.getLatestCalls != 0 {
		t.Error("存在最终版本时不应再查询最新版本")
	}
}

func TestEffectiveResolver_StorageError(t *testing.T) {
	repos := newTestRepos()
	repos.availability.getFinalErr = errStorageDown
	r := NewEffectiveResolver(repos.repo, zap.NewNop())

	_, src, err := r.Resolve(context.Background(), "inst-1", "p-1")
	if !errors.Is(err, errStorageDown) || src != SourceNone {
		t.Errorf("期望透传存储错误，实际 (%s, %v)", src, err)
	}
}

// 完整流程：提交恰好 4 格 → 草稿 → 定稿 → 解析为 FINAL → 压缩为单个时间段
func TestScenario_SubmitFinalizeResolveCondense(t *testing.T) {
	svc, repos := setupTestAvailabilityService()
	r := NewEffectiveResolver(repos.repo, zap.NewNop())
	ctx := context.Background()

	if errs := svc.Validate(fourSlots); len(errs) != 0 {
		t.Fatalf("校验应通过: %v", errs)
	}
	v, err := svc.CreateVersion(ctx, "inst-1", "p-1", fourSlots, nil, true)
	if err != nil {
		t.Fatalf("CreateVersion 失败: %v", err)
	}
	if v.IsFinal() {
		t.Fatal("新版本应为草稿")
	}
	if _, err := svc.MarkFinal(ctx, v.VersionID, "inst-1"); err != nil {
		t.Fatalf("MarkFinal 失败: %v", err)
	}

	eff, src, err := r.Resolve(ctx, "inst-1", "p-1")
	if err != nil || src != SourceFinal || eff.VersionID != v.VersionID {
		t.Fatalf("期望 (v, FINAL)，实际 (%v, %s, %v)", eff, src, err)
	}

	ranges, err := timegrid.Condense(eff.Slots)
	if err != nil {
		t.Fatalf("Condense 失败: %v", err)
	}
	if len(ranges) != 1 || ranges[0] != (timegrid.Range{Day: "Monday", Start: "08:00", End: "10:00"}) {
		t.Errorf("期望单个 Monday 08:00-10:00，实际 %v", ranges)
	}
}

// 失败流程：2 格 + 1 格 → 校验失败并指出 Monday 10:00 → 不创建版本
func TestScenario_RejectedSubmissionCreatesNothing(t *testing.T) {
	svc, repos := setupTestAvailabilityService()
	ctx := context.Background()

	_, err := svc.CreateVersion(ctx, "inst-1", "p-1", []string{"Monday-08:00", "Monday-08:30", "Monday-10:00"}, nil, true)
	var vErr *SlotValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("期望 SlotValidationError，实际: %v", err)
	}
	cited := false
	for _, e := range vErr.Errs {
		v := timegrid.Describe(e)
		if v.Day == "Monday" && v.Time == "10:00" {
			cited = true
		}
	}
	if !cited {
		t.Error("违规项应指出 Monday 10:00")
	}

	if n := len(repos.availability.versions); n != 0 {
		t.Errorf("不应创建任何版本，实际 %d", n)
	}
}
