package client

import "sync"

// Store is the normalized, in-memory cache of fetched records. It holds
// three independent id-keyed maps plus a singleton session slot; nothing is
// shared across them except id references. It is an explicit dependency of
// Client, never a package-level singleton.
type Store struct {
	mu      sync.RWMutex
	cafes   map[uint]Cafe
	reviews map[uint]Review
	user    *SessionUser
}

func NewStore() *Store {
	return &Store{
		cafes:   make(map[uint]Cafe),
		reviews: make(map[uint]Review),
	}
}

// SessionUser returns the logged-in user, or nil.
func (s *Store) SessionUser() *SessionUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) setUser(u *SessionUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Cafes returns a copy of the cafe map.
func (s *Store) Cafes() map[uint]Cafe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]Cafe, len(s.cafes))
	for id, cafe := range s.cafes {
		out[id] = cafe
	}
	return out
}

func (s *Store) Cafe(id uint) (Cafe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cafe, ok := s.cafes[id]
	return cafe, ok
}

// replaceCafes discards the previous cafe entries wholesale; a "list all"
// fetch is the source of truth for the whole map.
func (s *Store) replaceCafes(cafes []Cafe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cafes = make(map[uint]Cafe, len(cafes))
	for _, cafe := range cafes {
		s.cafes[cafe.ID] = cafe
	}
}

func (s *Store) upsertCafe(cafe Cafe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cafes[cafe.ID] = cafe
}

func (s *Store) removeCafe(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cafes, id)
	for rid, r := range s.reviews {
		if r.BusinessID == id {
			delete(s.reviews, rid)
		}
	}
}

// Reviews returns a copy of the review map, optionally scoped to one cafe.
func (s *Store) Reviews(businessID uint) []Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Review
	for _, r := range s.reviews {
		if businessID == 0 || r.BusinessID == businessID {
			out = append(out, r)
		}
	}
	return out
}

// replaceReviews swaps only the entries belonging to one cafe; reviews of
// other cafes stay cached.
func (s *Store) replaceReviews(businessID uint, reviews []Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reviews {
		if r.BusinessID == businessID {
			delete(s.reviews, id)
		}
	}
	for _, r := range reviews {
		s.reviews[r.ID] = r
	}
}

func (s *Store) upsertReview(r Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = r
}

func (s *Store) removeReview(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, id)
}
