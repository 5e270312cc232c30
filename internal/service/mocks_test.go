package service

import (
	"context"
	"sort"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/tonearm/internal/domain"
	"github.com/prn-tf/tonearm/internal/repository"
)

// memState is the in-memory database behind MockStore.
type memState struct {
	users   map[int64]*domain.User
	artists map[int64]*domain.Artist
	albums  map[int64]*domain.Album
	reviews map[int64]*domain.AlbumReview
	nextID  int64
}

func (s *memState) clone() *memState {
	c := &memState{
		users:   make(map[int64]*domain.User, len(s.users)),
		artists: make(map[int64]*domain.Artist, len(s.artists)),
		albums:  make(map[int64]*domain.Album, len(s.albums)),
		reviews: make(map[int64]*domain.AlbumReview, len(s.reviews)),
		nextID:  s.nextID,
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.artists {
		a := *v
		c.artists[k] = &a
	}
	for k, v := range s.albums {
		a := *v
		c.albums[k] = &a
	}
	for k, v := range s.reviews {
		r := *v
		c.reviews[k] = &r
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MockStore is an in-memory repository.Store. A failed unit of work
// leaves the state untouched.
type MockStore struct {
	state  *memState
	txs    []repository.TxOptions
	txErr  error
	health error
}

func NewMockStore() *MockStore {
	return &MockStore{state: (&memState{}).clone()}
}

func (m *MockStore) WithTx(ctx context.Context, opts repository.TxOptions, fn func(repos *repository.Repositories) error) error {
	m.txs = append(m.txs, opts)
	if m.txErr != nil {
		return m.txErr
	}

	work := m.state.clone()
	repos := &repository.Repositories{
		User:   &mockUserRepo{s: work},
		Artist: &mockArtistRepo{s: work},
		Album:  &mockAlbumRepo{s: work},
		Review: &mockReviewRepo{s: work},
	}
	if err := fn(repos); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MockStore) lastTx() repository.TxOptions {
	return m.txs[len(m.txs)-1]
}

func (m *MockStore) Ping(ctx context.Context) error   { return m.health }
func (m *MockStore) Health(ctx context.Context) error { return m.health }
func (m *MockStore) Close() error                     { return nil }
func (m *MockStore) Driver() string                   { return "memory" }

// =============================================================================
// Users
// =============================================================================

type mockUserRepo struct{ s *memState }

func (r *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return domain.ErrUserAlreadyExists
		}
	}
	user.ID = r.s.id()
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *mockUserRepo) SetAddMusicPerm(ctx context.Context, id int64, allowed bool) error {
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.AddMusicPerm = &allowed
	return nil
}

func (r *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for _, id := range sortedIDs(r.s.users) {
		u := *r.s.users[id]
		users = append(users, &u)
	}
	return users, nil
}

func (r *mockUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.s.users)), nil
}

// =============================================================================
// Catalog
// =============================================================================

type mockArtistRepo struct{ s *memState }

func (r *mockArtistRepo) Create(ctx context.Context, artist *domain.Artist) error {
	artist.ID = r.s.id()
	a := *artist
	r.s.artists[artist.ID] = &a
	return nil
}

func (r *mockArtistRepo) GetByName(ctx context.Context, name string) (*domain.Artist, error) {
	for _, id := range sortedIDs(r.s.artists) {
		if a := r.s.artists[id]; a.Name == name {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrArtistNotFound
}

func (r *mockArtistRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.s.artists)), nil
}

type mockAlbumRepo struct{ s *memState }

func (r *mockAlbumRepo) Create(ctx context.Context, album *domain.Album) error {
	if _, ok := r.s.artists[album.ArtistID]; !ok {
		return domain.ErrReferenceMissing
	}
	album.ID = r.s.id()
	a := *album
	r.s.albums[album.ID] = &a
	return nil
}

func (r *mockAlbumRepo) withArtist(a *domain.Album) *domain.Album {
	c := *a
	if artist, ok := r.s.artists[a.ArtistID]; ok {
		c.ArtistName = artist.Name
	}
	return &c
}

func (r *mockAlbumRepo) GetByName(ctx context.Context, name string) (*domain.Album, error) {
	for _, id := range sortedIDs(r.s.albums) {
		if a := r.s.albums[id]; a.Name == name {
			return r.withArtist(a), nil
		}
	}
	return nil, domain.ErrAlbumNotFound
}

func (r *mockAlbumRepo) List(ctx context.Context) ([]*domain.Album, error) {
	var albums []*domain.Album
	for _, id := range sortedIDs(r.s.albums) {
		albums = append(albums, r.withArtist(r.s.albums[id]))
	}
	return albums, nil
}

// =============================================================================
// Reviews
// =============================================================================

type mockReviewRepo struct{ s *memState }

func (r *mockReviewRepo) Create(ctx context.Context, review *domain.AlbumReview) error {
	if _, ok := r.s.albums[review.AlbumID]; !ok {
		return domain.ErrReferenceMissing
	}
	if _, ok := r.s.users[review.UserID]; !ok {
		return domain.ErrReferenceMissing
	}
	review.ID = r.s.id()
	c := *review
	r.s.reviews[review.ID] = &c
	return nil
}

func (r *mockReviewRepo) AverageScore(ctx context.Context, albumID int64) (*float64, error) {
	var sum float64
	var n int
	for _, rv := range r.s.reviews {
		if rv.AlbumID == albumID {
			sum += rv.Score
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

func (r *mockReviewRepo) ListByAlbum(ctx context.Context, albumID int64) ([]*domain.ReviewLine, error) {
	var lines []*domain.ReviewLine
	for _, id := range sortedIDs(r.s.reviews) {
		rv := r.s.reviews[id]
		if rv.AlbumID != albumID {
			continue
		}
		u, ok := r.s.users[rv.UserID]
		if !ok {
			continue
		}
		lines = append(lines, &domain.ReviewLine{Rating: rv.Score, Text: rv.Text, Username: u.Username})
	}
	return lines, nil
}

func (r *mockReviewRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for id, rv := range r.s.reviews {
		if rv.UserID == userID {
			delete(r.s.reviews, id)
			n++
		}
	}
	return n, nil
}

var _ repository.Store = (*MockStore)(nil)

// MockLocker records which keys a unit of work locks.
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryDelay)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) Release(ctx context.Context, key, token string) (bool, error) {
	args := m.Called(ctx, key, token)
	return args.Bool(0), args.Error(1)
}
