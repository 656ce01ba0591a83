package ledger

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Account is an immutable snapshot of an account record
type Account struct {
	ID           string
	Balance      decimal.Decimal
	CreationTime time.Time
	LastUpdated  time.Time
}

// record holds the current snapshot of one account. The snapshot is only replaced
// while the account lock is held, but may be loaded at any time.
type record struct {
	state atomic.Pointer[Account]
}

func (r *record) load() Account {
	return *r.state.Load()
}

// Store maps account numbers to their records. Writers must hold the account lock of
// the record they modify, readers that need a consistent view must too.
type Store struct {
	// The underlying account map
	accounts sync.Map

	// The number of accounts in the store
	size atomic.Int64
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the snapshot for id if found
func (s *Store) Get(id string) (Account, bool) {
	if v, ok := s.accounts.Load(id); ok {
		return v.(*record).load(), true
	}

	return Account{}, false
}

// Put replaces the snapshot for acct.ID, creating the record if absent. Returns true if
// the record was created.
func (s *Store) Put(acct Account) bool {
	if v, ok := s.accounts.Load(acct.ID); ok {
		v.(*record).state.Store(&acct)
		return false
	}

	rec := &record{}
	rec.state.Store(&acct)
	v, loaded := s.accounts.LoadOrStore(acct.ID, rec)
	if loaded {
		v.(*record).state.Store(&acct)
		return false
	}

	s.size.Add(1)
	return true
}

// Entries returns a best effort snapshot of all accounts sorted by id. It takes no
// account lock and may interleave with in-flight mutations.
func (s *Store) Entries() []Account {
	entries := make([]Account, 0, s.Size())
	s.accounts.Range(func(k, v interface{}) bool {
		entries = append(entries, v.(*record).load())
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	return entries
}

func (s *Store) Size() int64 {
	return s.size.Load()
}
