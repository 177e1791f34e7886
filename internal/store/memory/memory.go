package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

// Store keeps every record in process memory. It backs the "memory" data
// backend and the service tests.
type Store struct {
	mu         sync.Mutex
	profiles   []core.Profile
	activities []core.Activity
	finances   []core.Finance
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) CreateActivity(_ context.Context, a core.Activity) (core.Activity, error) {
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.Created = s.now()
	s.activities = append(s.activities, a)
	return a, nil
}

func (s *Store) GetActivity(_ context.Context, userID, id string) (core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.activities {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return core.Activity{}, core.ErrNotFound
}

func (s *Store) ListActivities(_ context.Context, q store.Query) ([]core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Activity
	for _, a := range s.activities {
		if q.MatchActivity(a) {
			out = append(out, a)
		}
	}
	return store.SortActivities(out, q.Sort, q.Limit), nil
}

func (s *Store) DeleteActivity(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.activities {
		if a.ID == id && a.UserID == userID {
			s.activities = append(s.activities[:i], s.activities[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) CreateFinance(_ context.Context, f core.Finance) (core.Finance, error) {
	if err := f.Validate(); err != nil {
		return core.Finance{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = uuid.NewString()
	f.Created = s.now()
	s.finances = append(s.finances, f)
	return f, nil
}

func (s *Store) GetFinance(_ context.Context, userID, id string) (core.Finance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.finances {
		if f.ID == id && f.UserID == userID {
			return f, nil
		}
	}
	return core.Finance{}, core.ErrNotFound
}

func (s *Store) ListFinances(_ context.Context, q store.Query) ([]core.Finance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Finance
	for _, f := range s.finances {
		if q.MatchFinance(f) {
			out = append(out, f)
		}
	}
	return store.SortFinances(out, q.Sort, q.Limit), nil
}

func (s *Store) DeleteFinance(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.finances {
		if f.ID == id && f.UserID == userID {
			s.finances = append(s.finances[:i], s.finances[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) CreateProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	if strings.TrimSpace(p.Name) == "" {
		return core.Profile{}, core.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Name, p.Name) {
			return core.Profile{}, core.ErrNameTaken
		}
	}
	p.ID = uuid.NewString()
	p.Created = s.now()
	p.Updated = p.Created
	s.profiles = append(s.profiles, p)
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Profile{}, core.ErrNotFound
}

func (s *Store) GetProfileByName(_ context.Context, name string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return core.Profile{}, core.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, existing := range s.profiles {
		if existing.ID == p.ID {
			idx = i
			continue
		}
		if strings.EqualFold(existing.Name, p.Name) {
			return core.Profile{}, core.ErrNameTaken
		}
	}
	if idx < 0 {
		return core.Profile{}, core.ErrNotFound
	}
	p.Created = s.profiles[idx].Created
	p.Updated = s.now()
	s.profiles[idx] = p
	return p, nil
}

func (s *Store) Close() error { return nil }
