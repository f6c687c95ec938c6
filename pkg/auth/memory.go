package auth

import (
	"context"
	"sync"
	"time"
)

// NewMemoryStores returns stores kept in process memory. They are safe for
// concurrent use and intended for tests and local development.
// Tx removes the users and accounts a failed fn created; it does not
// isolate concurrent callers.
func NewMemoryStores() *Stores {
	users := &MemoryUsers{byID: map[string]User{}}
	accounts := &MemoryAccounts{byID: map[string]Account{}}
	s := &Stores{
		Users:         users,
		Accounts:      accounts,
		Sessions:      &MemorySessions{byToken: map[string]Session{}},
		Verifications: &MemoryVerifications{byID: map[string]Verification{}},
	}
	s.Tx = func(ctx context.Context, fn func(tx *Stores) error) error {
		j := &journal{}
		tx := *s
		tx.Users = journalUsers{Users: s.Users, j: j}
		tx.Accounts = journalAccounts{Accounts: s.Accounts, j: j}
		tx.Tx = nil
		if err := fn(&tx); err != nil {
			accounts.remove(j.accounts...)
			users.remove(j.users...)
			return err
		}
		return nil
	}
	return s
}

// journal records the ids created inside a memory transaction.
type journal struct {
	users    []string
	accounts []string
	mu       sync.Mutex
}

type journalUsers struct {
	Users
	j *journal
}

func (u journalUsers) Create(ctx context.Context, user *User) error {
	if err := u.Users.Create(ctx, user); err != nil {
		return err
	}
	u.j.mu.Lock()
	u.j.users = append(u.j.users, user.ID)
	u.j.mu.Unlock()
	return nil
}

type journalAccounts struct {
	Accounts
	j *journal
}

func (a journalAccounts) Create(ctx context.Context, acc *Account) error {
	if err := a.Accounts.Create(ctx, acc); err != nil {
		return err
	}
	a.j.mu.Lock()
	a.j.accounts = append(a.j.accounts, acc.ID)
	a.j.mu.Unlock()
	return nil
}

type MemoryUsers struct {
	byID map[string]User
	mu   sync.RWMutex
}

func (m *MemoryUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *MemoryUsers) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return ErrUserNotFound
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *MemoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryUsers) remove(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.byID, id)
	}
}

type MemoryAccounts struct {
	byID map[string]Account
	mu   sync.RWMutex
}

func (m *MemoryAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[a.ID] = *a
	return nil
}

func (m *MemoryAccounts) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.ID]; !ok {
		return ErrAccountNotFound
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *MemoryAccounts) remove(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.byID, id)
	}
}

func (m *MemoryAccounts) FindByUser(_ context.Context, userID, providerID string) (*Account, error) {
	return m.find(func(a Account) bool { return a.UserID == userID && a.ProviderID == providerID })
}

func (m *MemoryAccounts) FindByProviderAccount(_ context.Context, providerID, accountID string) (*Account, error) {
	return m.find(func(a Account) bool { return a.ProviderID == providerID && a.AccountID == accountID })
}

func (m *MemoryAccounts) find(match func(Account) bool) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.byID {
		if match(a) {
			return &a, nil
		}
	}
	return nil, ErrAccountNotFound
}

type MemorySessions struct {
	byToken map[string]Session
	mu      sync.RWMutex
}

func (m *MemorySessions) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[s.Token] = *s
	return nil
}

func (m *MemorySessions) FindByToken(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemorySessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[token]; !ok {
		return ErrSessionNotFound
	}
	delete(m.byToken, token)
	return nil
}

func (m *MemorySessions) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.byToken {
		if s.UserID == userID {
			delete(m.byToken, token)
		}
	}
	return nil
}

func (m *MemorySessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.byToken {
		if s.Expired(before) {
			delete(m.byToken, token)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byToken)
}

type MemoryVerifications struct {
	byID map[string]Verification
	mu   sync.RWMutex
}

func (m *MemoryVerifications) Create(_ context.Context, v *Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[v.ID] = *v
	return nil
}

func (m *MemoryVerifications) FindByIdentifier(_ context.Context, identifier string) (*Verification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.byID {
		if v.Identifier == identifier {
			return &v, nil
		}
	}
	return nil, ErrVerificationNotFound
}

func (m *MemoryVerifications) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *MemoryVerifications) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, v := range m.byID {
		if v.Expired(before) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored verifications.
func (m *MemoryVerifications) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
