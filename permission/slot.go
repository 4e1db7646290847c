package permission

import "sync"

// Resolver receives the answer to one permission request.
type Resolver func(granted bool)

// pendingSlot holds at most one outstanding Resolver.
type pendingSlot struct {
	resolver Resolver
	mu       sync.Mutex
	code     int
}

// arm stores r under code. It returns false, leaving the slot untouched, if a
// resolver is already waiting.
func (s *pendingSlot) arm(code int, r Resolver) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolver != nil {
		return false
	}
	s.resolver = r
	s.code = code
	return true
}

// resolveIfMatch clears the slot and runs its resolver with granted when the
// slot is armed under code. The resolver runs after the lock is released.
func (s *pendingSlot) resolveIfMatch(code int, granted bool) bool {
	s.mu.Lock()
	r := s.resolver
	if r == nil || s.code != code {
		s.mu.Unlock()
		return false
	}
	s.resolver = nil
	s.mu.Unlock()

	r(granted)
	return true
}

// abandon clears the slot without running the resolver.
func (s *pendingSlot) abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	armed := s.resolver != nil
	s.resolver = nil
	return armed
}

func (s *pendingSlot) armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver != nil
}
