package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

// MemoryRepository keeps principals in process memory. A single mutex
// guards the rows and both unique indexes, which makes the uniqueness check
// and the insert one atomic step.
type MemoryRepository struct {
	mu         sync.RWMutex
	nextID     int64
	rows       map[int64]*models.User
	byUsername map[string]int64
	byEmail    map[string]int64
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:       make(map[int64]*models.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		now:        time.Now,
	}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.FullName != nil {
		fn := *u.FullName
		c.FullName = &fn
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return nil, ConflictError(FieldUsername)
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, ConflictError(FieldEmail)
	}

	r.nextID++
	now := r.now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	r.rows[user.ID] = clone(user)
	r.byUsername[user.Username] = user.ID
	r.byEmail[user.Email] = user.ID

	return user, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) Update(_ context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Empty() {
		return clone(u), nil
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := r.byEmail[*upd.Email]; taken {
			return nil, ConflictError(FieldEmail)
		}
		delete(r.byEmail, u.Email)
		r.byEmail[*upd.Email] = id
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		fn := *upd.FullName
		u.FullName = &fn
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = r.now().UTC()

	return clone(u), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	delete(r.rows, id)
	delete(r.byUsername, u.Username)
	delete(r.byEmail, u.Email)
	return true, nil
}

func (r *MemoryRepository) sortedIDs() []int64 {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *MemoryRepository) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0)
	skipped := 0
	for _, id := range r.sortedIDs() {
		u := r.rows[id]
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if skipped < filter.Skip {
			skipped++
			continue
		}
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
		result = append(result, clone(u))
	}
	return result, nil
}

func (r *MemoryRepository) Count(_ context.Context, isActive *bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if isActive == nil {
		return len(r.rows), nil
	}
	n := 0
	for _, u := range r.rows {
		if u.IsActive == *isActive {
			n++
		}
	}
	return n, nil
}
