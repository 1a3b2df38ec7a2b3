package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/exchange-booth/pkg/code/data/vault"
	"github.com/code-payments/exchange-booth/pkg/database/query"
)

type store struct {
	mu        sync.Mutex
	byAddress map[string]*vault.Record
	lastId    uint64
}

// New returns an in-memory vault.Store.
func New() vault.Store {
	s := &store{}
	s.reset()
	return s
}

func (s *store) reset() {
	s.mu.Lock()
	s.byAddress = make(map[string]*vault.Record)
	s.lastId = 0
	s.mu.Unlock()
}

func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.byAddress)), nil
}

func (s *store) Save(_ context.Context, record *vault.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	existing, ok := s.byAddress[record.Address]
	if !ok {
		s.lastId++
		record.Id = s.lastId
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.LastUpdatedAt = now

		cloned := record.Clone()
		s.byAddress[record.Address] = &cloned
		return nil
	}

	if existing.Slot > record.Slot {
		return vault.ErrStaleVaultState
	}

	existing.Admin = record.Admin
	existing.Lamports = record.Lamports
	existing.Slot = record.Slot
	existing.LastUpdatedAt = now
	existing.CopyTo(record)
	return nil
}

func (s *store) GetByAddress(_ context.Context, address string) (*vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byAddress[address]
	if !ok {
		return nil, vault.ErrVaultNotFound
	}
	cloned := record.Clone()
	return &cloned, nil
}

func (s *store) GetByMint(_ context.Context, programId, mint string) (*vault.Record, error) {
	matches := s.collect(func(r *vault.Record) bool {
		return r.ProgramId == programId && r.Mint == mint
	}, query.EmptyCursor, 1, query.Ascending)
	if len(matches) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return matches[0], nil
}

func (s *store) GetAllByAdmin(_ context.Context, admin string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	matches := s.collect(func(r *vault.Record) bool {
		return r.Admin == admin
	}, cursor, limit, direction)
	if len(matches) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return matches, nil
}

func (s *store) GetAll(_ context.Context, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error) {
	matches := s.collect(func(*vault.Record) bool { return true }, cursor, limit, direction)
	if len(matches) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return matches, nil
}

// collect returns clones of the page of records accepted by keep.
func (s *store) collect(keep func(*vault.Record) bool, cursor query.Cursor, limit uint64, direction query.Ordering) []*vault.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*vault.Record
	for _, record := range s.byAddress {
		if keep(record) {
			candidates = append(candidates, record)
		}
	}

	page := query.PaginateSlice(candidates, func(r *vault.Record) uint64 { return r.Id }, cursor, limit, direction)

	res := make([]*vault.Record, len(page))
	for i, record := range page {
		cloned := record.Clone()
		res[i] = &cloned
	}
	return res
}
