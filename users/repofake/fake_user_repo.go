package fakeuserrepo

import (
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	accounts  map[int]*users.Account
	usernames map[string]int // username to account id
	nextID    int
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		accounts:  make(map[int]*users.Account),
		usernames: make(map[string]int),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == 0 {
		if id, ok := ur.usernames[account.Username()]; ok {
			account.ID = id
		} else {
			ur.nextID++
			account.ID = ur.nextID
		}
	}
	copied := *account
	ur.accounts[account.ID] = &copied
	ur.usernames[account.Username()] = account.ID
	if account.UserCode != "" {
		ur.usernames[account.UserCode] = account.ID
	}
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.usernames[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *ur.accounts[id]
	return &copied, nil
}

func (ur *FakeUserRepo) GetByID(id int) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// List returns the accounts of tenantCode, or every account when tenantCode is empty.
func (ur *FakeUserRepo) List(tenantCode string) ([]*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.Account, 0)
	for _, a := range ur.accounts {
		if tenantCode != "" && a.TenantCode != tenantCode {
			continue
		}
		copied := *a
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}
