package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is a process-local Store. It backs tests and STORE_BACKEND=memory.
type Memory struct {
	mu     sync.RWMutex
	now    func() time.Time
	issues map[primitive.ObjectID]models.Issue
	order  []primitive.ObjectID
	users  map[primitive.ObjectID]models.User
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:    now,
		issues: make(map[primitive.ObjectID]models.Issue),
		users:  make(map[primitive.ObjectID]models.User),
	}
}

func (m *Memory) CreateIssue(_ context.Context, issue *models.Issue) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := *issue
	created.ID = primitive.NewObjectID()
	created.Status = models.Pending
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	m.issues[created.ID] = created
	m.order = append(m.order, created.ID)
	return &created, nil
}

func (m *Memory) ListIssues(_ context.Context) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(models.Issue) bool { return true }), nil
}

func (m *Memory) ListIssuesByUser(_ context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(i models.Issue) bool { return i.UserID == userID }), nil
}

// collect returns matching issues newest first; insertion order breaks ties.
func (m *Memory) collect(keep func(models.Issue) bool) []models.Issue {
	out := make([]models.Issue, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		issue := m.issues[m.order[i]]
		if keep(issue) {
			out = append(out, issue)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (m *Memory) GetIssue(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &issue, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus, allowedFrom []models.IssueStatus, at time.Time) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	if issue.Status == status {
		return &issue, ErrStatusUnchanged
	}
	if allowedFrom != nil && !slices.Contains(allowedFrom, issue.Status) {
		return &issue, ErrStatusNotAllowed
	}
	issue.Status = status
	issue.UpdatedAt = at
	m.issues[id] = issue
	return &issue, nil
}

func (m *Memory) UpdateAdminNotes(_ context.Context, id primitive.ObjectID, notes string, at time.Time) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	issue.AdminNotes = &notes
	issue.UpdatedAt = at
	m.issues[id] = issue
	return &issue, nil
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range m.users {
		if existing.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	created := *user
	created.ID = primitive.NewObjectID()
	created.Email = email
	if !created.Role.Valid() {
		created.Role = models.RoleCitizen
	}
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	m.users[created.ID] = created
	return &created, nil
}

func (m *Memory) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateProfile(_ context.Context, id primitive.ObjectID, fullName string, at time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.FullName = fullName
	user.UpdatedAt = at
	m.users[id] = user
	return &user, nil
}

func (m *Memory) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// SetRole changes a stored role. Only operator tooling and tests call it.
func (m *Memory) SetRole(id primitive.ObjectID, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		user.Role = role
		m.users[id] = user
	}
}
