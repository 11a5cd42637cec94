//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"availability-hub/internal/model"
	"availability-hub/internal/repository"
	"availability-hub/pkg/database"
	pkgerrors "availability-hub/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=availability_hub_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 部分唯一索引无法由 AutoMigrate 生成，使用正式迁移
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupScope 创建一个教师与一个学期并返回清理函数
func setupScope(t *testing.T) (user *model.User, period *model.AcademicPeriod, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	user = &model.User{
		UserID:   fmt.Sprintf("inst-%d", suffix),
		Name:     "测试教师",
		Email:    fmt.Sprintf("inst-%d@example.com", suffix),
		Role:     model.RoleInstructor,
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	period = &model.AcademicPeriod{
		PeriodID:            fmt.Sprintf("period-%d", suffix),
		Name:                "2026-2",
		StartDate:           time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		IsOpenForSubmission: true,
	}
	if err := testDB.WithContext(ctx).Create(period).Error; err != nil {
		t.Fatalf("创建学期失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("period_id = ?", period.PeriodID).Delete(&model.AvailabilityVersion{})
		testDB.Where("period_id = ?", period.PeriodID).Delete(&model.AcademicPeriod{})
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

func newVersion(t *testing.T, repo *repository.Repository, user *model.User, period *model.AcademicPeriod, at time.Time) *model.AvailabilityVersion {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("生成 UUIDv7 失败: %v", err)
	}
	v := &model.AvailabilityVersion{
		VersionID:    id.String(),
		InstructorID: user.UserID,
		PeriodID:     period.PeriodID,
		Slots:        model.StringArray{"Monday-08:00", "Monday-08:30", "Monday-09:00", "Monday-09:30"},
		State:        model.VersionStateDraft,
		CreatedAt:    at,
	}
	if err := repo.Availability.Create(context.Background(), v); err != nil {
		t.Fatalf("创建版本失败: %v", err)
	}
	return v
}

func countFinal(t *testing.T, user *model.User, period *model.AcademicPeriod) int64 {
	t.Helper()
	var n int64
	testDB.Model(&model.AvailabilityVersion{}).
		Where("instructor_id = ? AND period_id = ? AND state = ?", user.UserID, period.PeriodID, "final").
		Count(&n)
	return n
}

// ═══════════════════════════════════════════════════════════
// Test: 读写与排序
// ═══════════════════════════════════════════════════════════

func TestAvailability_CreateAndRoundTripSlots(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	v := newVersion(t, repo, user, period, time.Now().UTC())

	got, err := repo.Availability.GetByID(context.Background(), v.VersionID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if len(got.Slots) != 4 || got.Slots[0] != "Monday-08:00" {
		t.Errorf("slots 往返不一致: %v", got.Slots)
	}
	if got.IsFinal() {
		t.Error("新版本不应为 final")
	}

	if _, err := repo.Availability.GetByID(context.Background(), uuid.NewString()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，得到: %v", err)
	}
}

func TestAvailability_ListByScopeNewestFirst(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	base := time.Now().UTC().Truncate(time.Second)
	v1 := newVersion(t, repo, user, period, base)
	v2 := newVersion(t, repo, user, period, base.Add(time.Minute))
	v3 := newVersion(t, repo, user, period, base.Add(2*time.Minute))

	list, err := repo.Availability.ListByScope(context.Background(), user.UserID, period.PeriodID)
	if err != nil {
		t.Fatalf("ListByScope 失败: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("期望 3 个版本，得到 %d", len(list))
	}
	if list[0].VersionID != v3.VersionID || list[1].VersionID != v2.VersionID || list[2].VersionID != v1.VersionID {
		t.Error("版本应按创建时间倒序")
	}

	latest, err := repo.Availability.GetLatest(context.Background(), user.UserID, period.PeriodID)
	if err != nil || latest.VersionID != v3.VersionID {
		t.Errorf("GetLatest 应返回 v3，得到: %v, %v", latest, err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 定稿
// ═══════════════════════════════════════════════════════════

func TestAvailability_MarkFinalDemotesSibling(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	base := time.Now().UTC()
	v1 := newVersion(t, repo, user, period, base)
	v2 := newVersion(t, repo, user, period, base.Add(time.Second))

	if err := repo.Availability.MarkFinal(ctx, v1); err != nil {
		t.Fatalf("MarkFinal(v1) 失败: %v", err)
	}
	if err := repo.Availability.MarkFinal(ctx, v2); err != nil {
		t.Fatalf("MarkFinal(v2) 失败: %v", err)
	}

	final, err := repo.Availability.GetFinal(ctx, user.UserID, period.PeriodID)
	if err != nil {
		t.Fatalf("GetFinal 失败: %v", err)
	}
	if final.VersionID != v2.VersionID {
		t.Errorf("期望 final=v2，得到 %s", final.VersionID)
	}
	if n := countFinal(t, user, period); n != 1 {
		t.Errorf("期望恰好 1 个 final，得到 %d", n)
	}

	// 重复定稿同一版本是幂等的
	if err := repo.Availability.MarkFinal(ctx, v2); err != nil {
		t.Fatalf("重复 MarkFinal 失败: %v", err)
	}
	if n := countFinal(t, user, period); n != 1 {
		t.Errorf("期望恰好 1 个 final，得到 %d", n)
	}
}

func TestAvailability_MarkFinalConcurrent(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	base := time.Now().UTC()
	versions := make([]*model.AvailabilityVersion, 5)
	for i := range versions {
		versions[i] = newVersion(t, repo, user, period, base.Add(time.Duration(i)*time.Second))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(versions)*4)
	for round := 0; round < 4; round++ {
		for _, v := range versions {
			wg.Add(1)
			go func(v *model.AvailabilityVersion) {
				defer wg.Done()
				target := *v
				if err := repo.Availability.MarkFinal(context.Background(), &target); err != nil &&
					!errors.Is(err, pkgerrors.ErrFinalizeConflict) {
					errs <- err
				}
			}(v)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("并发 MarkFinal 出现非预期错误: %v", err)
	}
	if n := countFinal(t, user, period); n != 1 {
		t.Errorf("并发定稿后期望恰好 1 个 final，得到 %d", n)
	}
}

func TestAvailability_PartialUniqueIndexRejectsSecondFinal(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	v1 := newVersion(t, repo, user, period, time.Now().UTC())
	if err := repo.Availability.MarkFinal(ctx, v1); err != nil {
		t.Fatalf("MarkFinal 失败: %v", err)
	}

	// 绕过仓储直接插入第二个 final，应被部分唯一索引拒绝
	id, _ := uuid.NewV7()
	rogue := &model.AvailabilityVersion{
		VersionID:    id.String(),
		InstructorID: user.UserID,
		PeriodID:     period.PeriodID,
		Slots:        model.StringArray{},
		State:        model.VersionStateFinal,
		CreatedAt:    time.Now().UTC(),
	}
	err := testDB.WithContext(ctx).Create(rogue).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("期望唯一约束冲突，得到: %v。确保已运行 uk_availability_final_per_scope 迁移", err)
	}
}

func TestAvailability_MarkFinalUnknownVersion(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ghost := &model.AvailabilityVersion{
		VersionID:    uuid.NewString(),
		InstructorID: user.UserID,
		PeriodID:     period.PeriodID,
	}
	err := repo.Availability.MarkFinal(context.Background(), ghost)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，得到: %v", err)
	}
}

func TestAvailability_CreateUnknownInstructorViolatesForeignKey(t *testing.T) {
	_, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	v := &model.AvailabilityVersion{
		VersionID:    uuid.NewString(),
		InstructorID: "not-synced-" + uuid.NewString(),
		PeriodID:     period.PeriodID,
		Slots:        model.StringArray{},
		State:        model.VersionStateDraft,
		CreatedAt:    time.Now().UTC(),
	}
	err := repo.Availability.Create(context.Background(), v)
	if !errors.Is(err, gorm.ErrForeignKeyViolated) {
		t.Errorf("期望 ErrForeignKeyViolated，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 统计与学期
// ═══════════════════════════════════════════════════════════

func TestAvailability_ListScopeStatuses(t *testing.T) {
	user, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	v := newVersion(t, repo, user, period, time.Now().UTC())

	statuses, err := repo.Availability.ListScopeStatuses(ctx, period.PeriodID)
	if err != nil {
		t.Fatalf("ListScopeStatuses 失败: %v", err)
	}
	if len(statuses) != 1 || statuses[0].InstructorID != user.UserID || statuses[0].HasFinal {
		t.Errorf("期望单个仅草稿的教师，得到: %+v", statuses)
	}

	if err := repo.Availability.MarkFinal(ctx, v); err != nil {
		t.Fatalf("MarkFinal 失败: %v", err)
	}
	statuses, _ = repo.Availability.ListScopeStatuses(ctx, period.PeriodID)
	if len(statuses) != 1 || !statuses[0].HasFinal {
		t.Errorf("定稿后 HasFinal 应为 true，得到: %+v", statuses)
	}
}

func TestPeriod_UpdateWindow(t *testing.T) {
	_, period, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Period.UpdateWindow(ctx, period.PeriodID, false); err != nil {
		t.Fatalf("UpdateWindow 失败: %v", err)
	}
	got, err := repo.Period.GetByID(ctx, period.PeriodID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if got.IsOpenForSubmission {
		t.Error("提交窗口应已关闭")
	}

	if err := repo.Period.UpdateWindow(ctx, "no-such-period", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，得到: %v", err)
	}
}

func TestUser_ListActiveInstructors(t *testing.T) {
	user, _, cleanup := setupScope(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	users, err := repo.User.ListActiveInstructors(context.Background())
	if err != nil {
		t.Fatalf("ListActiveInstructors 失败: %v", err)
	}
	found := false
	for _, u := range users {
		if u.UserID == user.UserID {
			found = true
		}
		if u.Role != model.RoleInstructor || !u.IsActive {
			t.Errorf("列表中不应出现非在职教师: %+v", u)
		}
	}
	if !found {
		t.Error("新建教师应出现在列表中")
	}
}
