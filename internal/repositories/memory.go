package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/socialgraph/backend/internal/models"
)

// MemoryStore keeps users and friend requests in process memory. It backs
// local development when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	requests map[string]models.FriendRequest
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		requests: make(map[string]models.FriendRequest),
	}
}

// Users exposes the store through the UserRepository contract.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Friends exposes the store through the FriendRepository contract.
func (s *MemoryStore) Friends() FriendRepository { return memoryFriends{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range m.s.users {
		if existing.Email == user.Email {
			return ErrConflict
		}
	}
	m.s.users[user.ID] = user
	return nil
}

func (m memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	user, ok := m.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, user := range m.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m memoryUsers) SearchByEmail(_ context.Context, email string, page models.Page) ([]models.User, int, error) {
	return m.s.filterUsers(func(u models.User) bool { return u.Email == email }, page)
}

func (m memoryUsers) SearchByName(_ context.Context, term string, page models.Page) ([]models.User, int, error) {
	needle := strings.ToLower(term)
	return m.s.filterUsers(func(u models.User) bool {
		return strings.Contains(strings.ToLower(u.FirstName), needle) ||
			strings.Contains(strings.ToLower(u.LastName), needle)
	}, page)
}

type memoryFriends struct{ s *MemoryStore }

func (m memoryFriends) CreateRequest(_ context.Context, request models.FriendRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.requests[request.ID]; ok {
		return ErrConflict
	}
	if _, ok := m.s.users[request.FromUser]; !ok {
		return ErrNotFound
	}
	if _, ok := m.s.users[request.ToUser]; !ok {
		return ErrNotFound
	}
	m.s.requests[request.ID] = request
	return nil
}

func (m memoryFriends) FindRequest(_ context.Context, requestID string) (models.FriendRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	request, ok := m.s.requests[requestID]
	if !ok {
		return models.FriendRequest{}, ErrNotFound
	}
	return request, nil
}

func (m memoryFriends) MarkAccepted(_ context.Context, requestID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	request, ok := m.s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	request.Accepted = true
	m.s.requests[requestID] = request
	return nil
}

func (m memoryFriends) DeleteRequest(_ context.Context, requestID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.requests[requestID]; !ok {
		return ErrNotFound
	}
	delete(m.s.requests, requestID)
	return nil
}

func (m memoryFriends) FindAcceptedByFrom(_ context.Context, userID string, page models.Page) ([]models.User, int, error) {
	m.s.mu.RLock()
	friendIDs := make(map[string]struct{})
	for _, request := range m.s.requests {
		if request.FromUser == userID && request.Accepted {
			friendIDs[request.ToUser] = struct{}{}
		}
	}
	m.s.mu.RUnlock()

	return m.s.filterUsers(func(u models.User) bool {
		_, ok := friendIDs[u.ID]
		return ok
	}, page)
}

func (m memoryFriends) FindPendingByTo(_ context.Context, userID string, page models.Page) ([]models.FriendRequest, int, error) {
	m.s.mu.RLock()
	var matched []models.FriendRequest
	for _, request := range m.s.requests {
		if request.ToUser == userID && !request.Accepted {
			matched = append(matched, request)
		}
	}
	m.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return window(matched, page), len(matched), nil
}

func (s *MemoryStore) filterUsers(keep func(models.User) bool, page models.Page) ([]models.User, int, error) {
	s.mu.RLock()
	var matched []models.User
	for _, user := range s.users {
		if keep(user) {
			matched = append(matched, user)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, page), len(matched), nil
}

func window[T any](items []T, page models.Page) []T {
	if page.Offset < 0 || page.Offset >= len(items) {
		return nil
	}
	end := len(items)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}

var _ UserRepository = memoryUsers{}
var _ FriendRepository = memoryFriends{}
