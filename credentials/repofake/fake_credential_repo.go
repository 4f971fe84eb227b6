package credentialrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-rag-admin/credentials"
	apperrors "github.com/jrsteele09/go-rag-admin/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialRepo)(nil)

type FakeCredentialRepo struct {
	record  *credentials.Record
	loadErr error
	saves   int
	lock    sync.RWMutex
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{}
}

// Seed stores a record without validation so tests can plant partial records.
func (r *FakeCredentialRepo) Seed(record credentials.Record) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = &record
}

// FailLoads makes every Load return err until cleared with nil.
func (r *FakeCredentialRepo) FailLoads(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.loadErr = err
}

// Saves returns the number of successful Save calls.
func (r *FakeCredentialRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}

func (r *FakeCredentialRepo) Load(_ context.Context) (*credentials.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.record == nil {
		return nil, apperrors.ErrNoCredentials
	}
	copied := *r.record
	return &copied, nil
}

func (r *FakeCredentialRepo) Save(_ context.Context, record credentials.Record) error {
	if !record.Valid() {
		return apperrors.ErrInvalidCredential
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = &record
	r.saves++
	return nil
}

func (r *FakeCredentialRepo) Delete(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.record = nil
	return nil
}
