package tenantrepofakes

import (
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
	"github.com/jrsteele09/go-rag-admin/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	companies map[string]*tenants.Company
	nextID    int
	lock      sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		companies: make(map[string]*tenants.Company),
	}
}

func (tr *FakeTenantRepo) Upsert(company *tenants.Company) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if existing, ok := tr.companies[company.TenantCode]; ok && company.ID == 0 {
		company.ID = existing.ID
	}
	if company.ID == 0 {
		tr.nextID++
		company.ID = tr.nextID
	}
	copied := *company
	tr.companies[company.TenantCode] = &copied
	return nil
}

func (tr *FakeTenantRepo) Get(tenantCode string) (*tenants.Company, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	company, ok := tr.companies[tenantCode]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *company
	return &copied, nil
}

func (tr *FakeTenantRepo) List(offset, limit int) ([]*tenants.Company, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	list := make([]*tenants.Company, 0, len(tr.companies))
	for _, c := range tr.companies {
		copied := *c
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return []*tenants.Company{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}
