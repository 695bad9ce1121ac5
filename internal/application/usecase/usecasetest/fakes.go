// Package usecasetest provides in-memory ports for use case tests.
package usecasetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
)

// MediaRepo mirrors the conditional update semantics of the Mongo repository.
type MediaRepo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*media.Media
	Writes int

	SaveErr   error
	DeleteErr error
}

func NewMediaRepo(items ...*media.Media) *MediaRepo {
	r := &MediaRepo{items: make(map[uuid.UUID]*media.Media)}
	for _, m := range items {
		r.items[m.ID] = clone(m)
	}
	return r
}

func clone(m *media.Media) *media.Media {
	c := *m
	c.Tags = append([]string(nil), m.Tags...)
	c.Ratings = append([]media.Rating(nil), m.Ratings...)
	c.Comments = append([]media.Comment(nil), m.Comments...)
	return &c
}

func (r *MediaRepo) Get(id uuid.UUID) (*media.Media, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, false
	}
	return clone(m), true
}

func (r *MediaRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *MediaRepo) Save(_ context.Context, m *media.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.Writes++
	r.items[m.ID] = clone(m)
	return nil
}

func (r *MediaRepo) FindByID(_ context.Context, id uuid.UUID) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, apperror.NewNotFound("media", id.String())
	}
	return clone(m), nil
}

func (r *MediaRepo) sorted() []*media.Media {
	out := make([]*media.Media, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *MediaRepo) List(_ context.Context, limit, offset int) ([]*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset < 0 || limit < 1 {
		return nil, apperror.NewPersistence("invalid page window", nil)
	}
	all := r.sorted()
	if offset >= len(all) {
		return []*media.Media{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MediaRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *MediaRepo) Search(_ context.Context, f media.SearchFilter) ([]*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*media.Media, 0)
	for _, m := range r.sorted() {
		if f.Query != "" {
			hit := containsFold(m.Title, f.Query) || containsFold(m.Caption, f.Query)
			for _, t := range m.Tags {
				hit = hit || containsFold(t, f.Query)
			}
			if !hit {
				continue
			}
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.Location != "" && !containsFold(m.Location, f.Location) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MediaRepo) Delete(_ context.Context, id, creatorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	m, ok := r.items[id]
	if !ok || m.CreatorID != creatorID {
		return apperror.NewNotFound("media", id.String())
	}
	r.Writes++
	delete(r.items, id)
	return nil
}

func (r *MediaRepo) AddComment(_ context.Context, mediaID uuid.UUID, c media.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[mediaID]
	if !ok {
		return apperror.NewNotFound("media", mediaID.String())
	}
	r.Writes++
	m.Comments = append(m.Comments, c)
	return nil
}

func (r *MediaRepo) RemoveComment(_ context.Context, mediaID, commentID, authorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[mediaID]
	if !ok {
		return apperror.NewNotFound("media", mediaID.String())
	}
	for i, c := range m.Comments {
		if c.ID == commentID && c.UserID == authorID {
			r.Writes++
			m.Comments = append(m.Comments[:i], m.Comments[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("comment", commentID.String())
}

func (r *MediaRepo) UpsertRating(_ context.Context, mediaID uuid.UUID, rating media.Rating) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[mediaID]
	if !ok {
		return nil, apperror.NewNotFound("media", mediaID.String())
	}
	r.Writes++
	for i := range m.Ratings {
		if m.Ratings[i].UserID == rating.UserID {
			m.Ratings[i] = rating
			return clone(m), nil
		}
	}
	m.Ratings = append(m.Ratings, rating)
	return clone(m), nil
}

func (r *MediaRepo) RemoveRating(_ context.Context, mediaID, userID uuid.UUID) (*media.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[mediaID]
	if !ok {
		return nil, apperror.NewNotFound("media", mediaID.String())
	}
	r.Writes++
	kept := m.Ratings[:0]
	for _, rt := range m.Ratings {
		if rt.UserID != userID {
			kept = append(kept, rt)
		}
	}
	m.Ratings = kept
	return clone(m), nil
}

type UserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*user.User
	Lookups int
}

func NewUserRepo(users ...*user.User) *UserRepo {
	r := &UserRepo{users: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepo) Save(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewConflict("user", "email", u.Email)
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", id.String())
}

func (r *UserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	out := make(map[uuid.UUID]*user.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type Storage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	UploadErr error
	DeleteErr error
	Deleted   []string
}

func NewStorage() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

func (s *Storage) Provider() string { return "memory" }

func (s *Storage) URL(key string) string { return "https://cdn.example.com/" + key }

func (s *Storage) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

func (s *Storage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *Storage) Upload(_ context.Context, data []byte, _ string, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.objects[key] = data
	return s.URL(key), nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.objects[key]; !ok {
		return service.ErrObjectNotFound
	}
	delete(s.objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

type Publisher struct {
	mu     sync.Mutex
	Events []service.MediaEvent
	Err    error
}

func (p *Publisher) PublishMediaEvent(_ context.Context, evt service.MediaEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, evt)
	return nil
}

func (p *Publisher) Types() []service.MediaEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]service.MediaEventType, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.EventType)
	}
	return out
}
