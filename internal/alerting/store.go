package alerting

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds alert rules keyed by their identifier. One enabled rule is
// allowed per recipient: saving a rule without an ID reuses the identity
// already registered for that recipient instead of minting a new one.
//
// The store itself is safe for concurrent use; episode state lives in the
// Evaluator and is reset by the caller on edits.
type Store struct {
	mu          sync.RWMutex
	rules       map[uuid.UUID]Rule
	byRecipient map[string]uuid.UUID
}

// NewStore constructs an empty rule store.
func NewStore() *Store {
	return &Store{
		rules:       make(map[uuid.UUID]Rule),
		byRecipient: make(map[string]uuid.UUID),
	}
}

// Save validates and upserts a rule, returning the stored value with its
// identity filled in. A validation failure leaves the store unchanged.
func (s *Store) Save(rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == uuid.Nil {
		if existing, ok := s.byRecipient[rule.Recipient]; ok {
			rule.ID = existing
		} else {
			rule.ID = uuid.New()
		}
	}

	if prev, ok := s.rules[rule.ID]; ok && prev.Recipient != rule.Recipient {
		delete(s.byRecipient, prev.Recipient)
	}

	rule.UpdatedAt = time.Now().UTC()
	s.rules[rule.ID] = rule
	s.byRecipient[rule.Recipient] = rule.ID
	return rule, nil
}

// Get returns a rule by identifier.
func (s *Store) Get(id uuid.UUID) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return rule, nil
}

// GetByRecipient returns the rule registered for a recipient.
func (s *Store) GetByRecipient(recipient string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRecipient[recipient]
	if !ok {
		return Rule{}, ErrRuleNotFound
	}
	return s.rules[id], nil
}

// Delete removes a rule.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[id]
	if !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, id)
	delete(s.byRecipient, rule.Recipient)
	return nil
}

// List returns all rules ordered by recipient for stable iteration.
func (s *Store) List() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipient < out[j].Recipient })
	return out
}
