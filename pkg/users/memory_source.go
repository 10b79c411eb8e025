package users

import "sync"

// MemorySource implements Source without touching disk
type MemorySource struct {
	mu       sync.RWMutex
	accounts []Account
	saves    int
	failNext error
}

// NewMemorySource creates a MemorySource seeded with accounts
func NewMemorySource(accounts ...Account) *MemorySource {
	return &MemorySource{
		accounts: append([]Account(nil), accounts...),
	}
}

// LoadAccounts implements Source
func (s *MemorySource) LoadAccounts() ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Account(nil), s.accounts...), nil
}

// SaveAccounts implements Source
func (s *MemorySource) SaveAccounts(accounts []Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	s.accounts = append([]Account(nil), accounts...)
	s.saves++
	return nil
}

// Saves returns how many times the set was persisted
func (s *MemorySource) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// FailNextSave makes the next SaveAccounts call return err
func (s *MemorySource) FailNextSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Replace swaps the stored set, as if another process had edited it
func (s *MemorySource) Replace(accounts ...Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]Account(nil), accounts...)
}
