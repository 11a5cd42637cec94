package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"gorm.io/gorm"

	"availability-hub/internal/model"
	"availability-hub/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(u *model.User) { m.users[u.UserID] = u }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListActiveInstructors(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == model.RoleInstructor && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock PeriodRepository ──

type mockPeriodRepo struct {
	periods map[string]*model.AcademicPeriod
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.AcademicPeriod)}
}

func (m *mockPeriodRepo) add(p *model.AcademicPeriod) { m.periods[p.PeriodID] = p }

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.AcademicPeriod, error) {
	if p, ok := m.periods[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) UpdateWindow(_ context.Context, id string, open bool) error {
	p, ok := m.periods[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsOpenForSubmission = open
	return nil
}

// ── Mock AvailabilityRepository ──
// 互斥锁模拟事务的串行化效果

type mockAvailabilityRepo struct {
	mu       sync.Mutex
	versions map[string]*model.AvailabilityVersion
	// 注入错误
	markFinalErr error
	getFinalErr  error
	// 调用计数
	getFinalCalls  int
	getLatestCalls int
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{versions: make(map[string]*model.AvailabilityVersion)}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, v *model.AvailabilityVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.versions[v.VersionID]; exists {
		return gorm.ErrDuplicatedKey
	}
	cp := *v
	m.versions[v.VersionID] = &cp
	return nil
}

func (m *mockAvailabilityRepo) GetByID(_ context.Context, id string) (*model.AvailabilityVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.versions[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) scope(instructorID, periodID string) []model.AvailabilityVersion {
	var result []model.AvailabilityVersion
	for _, v := range m.versions {
		if v.InstructorID == instructorID && v.PeriodID == periodID {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].VersionID > result[j].VersionID
	})
	return result
}

func (m *mockAvailabilityRepo) ListByScope(_ context.Context, instructorID, periodID string) ([]model.AvailabilityVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scope(instructorID, periodID), nil
}

func (m *mockAvailabilityRepo) GetFinal(_ context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getFinalCalls++
	if m.getFinalErr != nil {
		return nil, m.getFinalErr
	}
	for _, v := range m.scope(instructorID, periodID) {
		if v.IsFinal() {
			cp := v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) GetLatest(_ context.Context, instructorID, periodID string) (*model.AvailabilityVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getLatestCalls++
	list := m.scope(instructorID, periodID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (m *mockAvailabilityRepo) MarkFinal(_ context.Context, version *model.AvailabilityVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markFinalErr != nil {
		return m.markFinalErr
	}
	target, ok := m.versions[version.VersionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, v := range m.versions {
		if v.InstructorID == target.InstructorID && v.PeriodID == target.PeriodID && v.VersionID != target.VersionID {
			v.State = model.VersionStateDraft
		}
	}
	target.State = model.VersionStateFinal
	version.State = model.VersionStateFinal
	return nil
}

func (m *mockAvailabilityRepo) ListScopeStatuses(_ context.Context, periodID string) ([]repository.ScopeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byInstructor := make(map[string]bool)
	for _, v := range m.versions {
		if v.PeriodID != periodID {
			continue
		}
		byInstructor[v.InstructorID] = byInstructor[v.InstructorID] || v.IsFinal()
	}
	var result []repository.ScopeStatus
	for id, final := range byInstructor {
		result = append(result, repository.ScopeStatus{InstructorID: id, HasFinal: final})
	}
	return result, nil
}

func (m *mockAvailabilityRepo) finalCount(instructorID, periodID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.scope(instructorID, periodID) {
		if v.IsFinal() {
			n++
		}
	}
	return n
}

var errStorageDown = errors.New("storage unavailable")

// ── 测试装配 ──

type testRepos struct {
	user         *mockUserRepo
	period       *mockPeriodRepo
	availability *mockAvailabilityRepo
	repo         *repository.Repository
}

func newTestRepos() *testRepos {
	r := &testRepos{
		user:         newMockUserRepo(),
		period:       newMockPeriodRepo(),
		availability: newMockAvailabilityRepo(),
	}
	r.repo = &repository.Repository{
		User:         r.user,
		Period:       r.period,
		Availability: r.availability,
	}
	return r
}
