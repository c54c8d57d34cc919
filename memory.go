package sproutbank

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// MemoryStore is an in-memory Repository. Writes hold a single mutex, so
// the balance overwrite and transaction append of UpdateBalance are
// trivially atomic; reads return copies so callers cannot mutate internal
// state.
type MemoryStore struct {
	mu    sync.Mutex
	accts map[snowflake.ID]Account
	order []snowflake.ID
	txns  []Transaction
	ids   map[string]struct{}
}

var (
	_ Repository = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accts: make(map[snowflake.ID]Account),
		ids:   make(map[string]struct{}),
	}
}

func (m *MemoryStore) CreateAccount(acct Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accts[acct.ID]; exists {
		return fmt.Errorf("duplicate account id %s", acct.ID)
	}
	m.accts[acct.ID] = acct
	m.order = append(m.order, acct.ID)
	return nil
}

func (m *MemoryStore) GetAccount(id snowflake.ID) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accts[id]
	if !ok {
		return nil, ErrNotFound{ID: id.String()}
	}
	cp := acct
	return &cp, nil
}

func (m *MemoryStore) ListAccounts() ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Account, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.accts[id])
	}
	return out, nil
}

func (m *MemoryStore) PutAccount(acct Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accts[acct.ID]; !ok {
		return ErrNotFound{ID: acct.ID.String()}
	}
	m.accts[acct.ID] = acct
	return nil
}

func (m *MemoryStore) AppendTransaction(txn Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(txn)
}

func (m *MemoryStore) appendLocked(txn Transaction) error {
	if _, dup := m.ids[txn.ID]; dup {
		return fmt.Errorf("duplicate transaction id %s", txn.ID)
	}
	m.ids[txn.ID] = struct{}{}
	m.txns = append(m.txns, txn)
	return nil
}

func (m *MemoryStore) UpdateBalance(acct Account, txn Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accts[acct.ID]; !ok {
		return ErrNotFound{ID: acct.ID.String()}
	}
	if err := m.appendLocked(txn); err != nil {
		return err
	}
	m.accts[acct.ID] = acct
	return nil
}

// ListTransactions orders newest first; equal timestamps fall back to
// append order, latest appended first.
func (m *MemoryStore) ListTransactions(id snowflake.ID) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].AccountID == id {
			out = append(out, m.txns[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
