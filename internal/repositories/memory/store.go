// Package memory keeps users, prizes and wins in process memory. A single
// mutex guards all three collections, so every check-then-insert is atomic.
package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
)

var (
	_ repositories.UserRepository  = (*UserRepository)(nil)
	_ repositories.PrizeRepository = (*PrizeRepository)(nil)
	_ repositories.WinRepository   = (*WinRepository)(nil)
)

// Store holds the shared state behind the memory repositories
type Store struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	prizes []*models.Prize // index = id-1
	wins   []*models.WinRecord
	// owned maps a user id to the set of prize ids they have won
	owned map[int64]map[int64]bool
	now   func() time.Time
}

// UserRepository implements repositories.UserRepository
type UserRepository struct{ s *Store }

// PrizeRepository implements repositories.PrizeRepository
type PrizeRepository struct{ s *Store }

// WinRepository implements repositories.WinRepository
type WinRepository struct{ s *Store }

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		users: make(map[int64]*models.User),
		owned: make(map[int64]map[int64]bool),
		now:   time.Now,
	}
}

// Repositories exposes the store through the backend-neutral bundle
func (s *Store) Repositories() *repositories.Store {
	return &repositories.Store{
		Users:  &UserRepository{s},
		Prizes: &PrizeRepository{s},
		Wins:   &WinRepository{s},
		Close:  func(context.Context) error { return nil },
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return repositories.ErrUserExists
	}
	user.CreatedAt = s.now()
	u := *user
	s.users[user.ID] = &u
	return nil
}

// Ensure creates the user unless it exists
func (r *UserRepository) Ensure(ctx context.Context, id int64, name string) (models.EnsureResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; exists {
		return models.UserExisted, nil
	}
	s.users[id] = &models.User{ID: id, Name: name, CreatedAt: s.now()}
	return models.UserCreated, nil
}

// FindByID finds a user by id
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// FindAll returns all users ordered by id
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateMany appends new prizes
func (r *PrizeRepository) CreateMany(ctx context.Context, images []string) ([]*models.Prize, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]*models.Prize, 0, len(images))
	for _, img := range images {
		p := &models.Prize{
			ID:        int64(len(s.prizes) + 1),
			Image:     img,
			CreatedAt: s.now(),
		}
		s.prizes = append(s.prizes, p)
		created = append(created, copyPrize(p))
	}
	return created, nil
}

// FindByID finds a prize by id
func (r *PrizeRepository) FindByID(ctx context.Context, id int64) (*models.Prize, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.prize(id)
	if p == nil {
		return nil, repositories.ErrPrizeNotFound
	}
	return copyPrize(p), nil
}

// FindAll returns all prizes ordered by id
func (r *PrizeRepository) FindAll(ctx context.Context) ([]*models.Prize, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	prizes := make([]*models.Prize, 0, len(s.prizes))
	for _, p := range s.prizes {
		prizes = append(prizes, copyPrize(p))
	}
	return prizes, nil
}

// MarkUsed retires a prize
func (r *PrizeRepository) MarkUsed(ctx context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.prize(id)
	if p == nil {
		return repositories.ErrPrizeNotFound
	}
	p.Used = true
	return nil
}

// RandomUnused picks an unused prize uniformly at random
func (r *PrizeRepository) RandomUnused(ctx context.Context) (*models.Prize, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var available []*models.Prize
	for _, p := range s.prizes {
		if !p.Used {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return nil, repositories.ErrNoPrizesLeft
	}
	return copyPrize(available[rand.Intn(len(available))]), nil
}

// CountUnused counts prizes that are not retired
func (r *PrizeRepository) CountUnused(ctx context.Context) (int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.prizes {
		if !p.Used {
			n++
		}
	}
	return n, nil
}

// CountByPrize counts the win records of a prize
func (r *WinRepository) CountByPrize(ctx context.Context, prizeID int64) (int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, w := range s.wins {
		if w.PrizeID == prizeID {
			n++
		}
	}
	return n, nil
}

// Record inserts a win unless the user already owns the prize
func (r *WinRepository) Record(ctx context.Context, userID, prizeID int64) (models.RecordResult, error) {
	outcome, _, err := r.Claim(ctx, userID, prizeID, 0)
	if err != nil {
		return 0, err
	}
	if outcome == models.ClaimDuplicate {
		return models.WinAlreadyWon, nil
	}
	return models.WinAccepted, nil
}

// Claim inserts a win if the user does not own the prize and fewer than limit
// users do. A limit <= 0 means no cap.
func (r *WinRepository) Claim(ctx context.Context, userID, prizeID int64, limit int) (models.ClaimOutcome, *models.Prize, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.prize(prizeID)
	if p == nil {
		return "", nil, repositories.ErrPrizeNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return "", nil, repositories.ErrUserNotFound
	}
	if s.owned[userID][prizeID] {
		return models.ClaimDuplicate, copyPrize(p), nil
	}
	if limit > 0 && p.WinnerCount >= limit {
		return models.ClaimClosedOut, copyPrize(p), nil
	}

	s.wins = append(s.wins, &models.WinRecord{
		ID:      uint(len(s.wins) + 1),
		UserID:  userID,
		PrizeID: prizeID,
		WonAt:   s.now(),
	})
	if s.owned[userID] == nil {
		s.owned[userID] = make(map[int64]bool)
	}
	s.owned[userID][prizeID] = true
	p.WinnerCount++
	p.WinnerIDs = append(p.WinnerIDs, userID)
	return models.ClaimAccepted, copyPrize(p), nil
}

// ImagesByUser returns the images of the prizes a user won, in win order
func (r *WinRepository) ImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := []string{}
	for _, w := range s.wins {
		if w.UserID == userID {
			if p := s.prize(w.PrizeID); p != nil {
				images = append(images, p.Image)
			}
		}
	}
	return images, nil
}

// TopWinners ranks users by their number of wins
func (r *WinRepository) TopWinners(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	type tally struct {
		entry    *models.LeaderboardEntry
		firstWin int
	}
	byUser := make(map[int64]*tally)
	for i, w := range s.wins {
		t, ok := byUser[w.UserID]
		if !ok {
			u, known := s.users[w.UserID]
			if !known {
				continue
			}
			t = &tally{entry: &models.LeaderboardEntry{UserID: w.UserID, UserName: u.Name}, firstWin: i}
			byUser[w.UserID] = t
		}
		t.entry.Wins++
	}

	tallies := make([]*tally, 0, len(byUser))
	for _, t := range byUser {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		a, b := tallies[i], tallies[j]
		if a.entry.Wins != b.entry.Wins {
			return a.entry.Wins > b.entry.Wins
		}
		if a.firstWin != b.firstWin {
			return a.firstWin < b.firstWin
		}
		return a.entry.UserID < b.entry.UserID
	})
	if limit > 0 && len(tallies) > limit {
		tallies = tallies[:limit]
	}

	entries := make([]*models.LeaderboardEntry, 0, len(tallies))
	for _, t := range tallies {
		entries = append(entries, t.entry)
	}
	return entries, nil
}

func (s *Store) prize(id int64) *models.Prize {
	if id < 1 || id > int64(len(s.prizes)) {
		return nil
	}
	return s.prizes[id-1]
}

func copyPrize(p *models.Prize) *models.Prize {
	cp := *p
	cp.WinnerIDs = append([]int64(nil), p.WinnerIDs...)
	return &cp
}
