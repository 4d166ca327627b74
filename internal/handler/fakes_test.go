package handler

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/calendar-suite/internal/model"
	"github.com/iliyamo/calendar-suite/internal/pagination"
	"github.com/iliyamo/calendar-suite/internal/repository"
)

// In-memory stores standing in for the SQL repositories.  They implement
// just enough filtering for the handler tests; SQL behavior belongs to the
// repository layer.

type fakeUserStore struct {
	byID map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = *u
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) Update(_ context.Context, u *model.User) error {
	if _, ok := s.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	s.byID[u.ID] = *u
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeUserStore) List(_ context.Context, f repository.UserFilter, p pagination.Request) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range s.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.IsBanned != nil && u.IsBanned != *f.IsBanned {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return paginate(out, p)
}

type fakeCalendarStore struct {
	byID map[string]model.Calendar
}

func newFakeCalendarStore() *fakeCalendarStore {
	return &fakeCalendarStore{byID: map[string]model.Calendar{}}
}

func (s *fakeCalendarStore) Create(_ context.Context, c *model.Calendar) error {
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.byID[c.ID] = *c
	return nil
}

func (s *fakeCalendarStore) GetByID(_ context.Context, id string) (model.Calendar, error) {
	c, ok := s.byID[id]
	if !ok {
		return model.Calendar{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *fakeCalendarStore) Update(_ context.Context, c *model.Calendar) error {
	if _, ok := s.byID[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	s.byID[c.ID] = *c
	return nil
}

func (s *fakeCalendarStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeCalendarStore) List(_ context.Context, f repository.CalendarFilter, p pagination.Request) ([]model.Calendar, int64, error) {
	var out []model.Calendar
	for _, c := range s.byID {
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return paginate(out, p)
}

type fakeEventStore struct {
	byID map[string]model.Event
	cals *fakeCalendarStore
}

func newFakeEventStore(cals *fakeCalendarStore) *fakeEventStore {
	return &fakeEventStore{byID: map[string]model.Event{}, cals: cals}
}

func (s *fakeEventStore) Create(_ context.Context, e *model.Event) error {
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	s.byID[e.ID] = *e
	return nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id string) (model.Event, error) {
	e, ok := s.byID[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) Update(_ context.Context, e *model.Event) error {
	if _, ok := s.byID[e.ID]; !ok {
		return repository.ErrNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	s.byID[e.ID] = *e
	return nil
}

func (s *fakeEventStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeEventStore) List(_ context.Context, f repository.EventFilter, p pagination.Request) ([]model.Event, int64, error) {
	var out []model.Event
	for _, e := range s.byID {
		if f.CalendarID != "" && e.CalendarID != f.CalendarID {
			continue
		}
		if f.OwnerID != "" {
			cal, ok := s.cals.byID[e.CalendarID]
			if !ok || cal.UserID != f.OwnerID {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return paginate(out, p)
}

type fakeTaskStore struct {
	byID map[string]model.Task
	cals *fakeCalendarStore
}

func newFakeTaskStore(cals *fakeCalendarStore) *fakeTaskStore {
	return &fakeTaskStore{byID: map[string]model.Task{}, cals: cals}
}

func (s *fakeTaskStore) Create(_ context.Context, t *model.Task) error {
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	s.byID[t.ID] = *t
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id string) (model.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *fakeTaskStore) Update(_ context.Context, t *model.Task) error {
	if _, ok := s.byID[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	s.byID[t.ID] = *t
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *fakeTaskStore) List(_ context.Context, f repository.TaskFilter, p pagination.Request) ([]model.Task, int64, error) {
	var out []model.Task
	for _, t := range s.byID {
		if f.CalendarID != "" && t.CalendarID != f.CalendarID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.OwnerID != "" {
			cal, ok := s.cals.byID[t.CalendarID]
			if !ok || cal.UserID != f.OwnerID {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return paginate(out, p)
}

// paginate applies the offset/size window and returns the pre-window total.
func paginate[T any](items []T, p pagination.Request) ([]T, int64, error) {
	total := int64(len(items))
	start := p.Offset()
	if start >= len(items) {
		return []T{}, total, nil
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
