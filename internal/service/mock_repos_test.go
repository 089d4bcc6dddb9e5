package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
	pkgerrors "swapslot/backend/pkg/errors"
)

// ── In-memory record store ──
//
// Repositories hand out copies so that callers mutating a record do not touch
// stored state until Update succeeds, the same as a real database.

type mockStore struct {
	users    map[string]model.User
	slots    map[string]model.Slot
	requests map[string]model.SwapRequest
	seq      int
	clock    time.Time

	// slotUpdateHook runs before every slot update; a non-nil error aborts it
	slotUpdateHook func(slot *model.Slot) error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[string]model.User),
		slots:    make(map[string]model.Slot),
		requests: make(map[string]model.SwapRequest),
		clock:    time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// tick returns a strictly increasing timestamp
func (s *mockStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *mockStore) snapshot() *mockStore {
	cp := &mockStore{
		users:          make(map[string]model.User, len(s.users)),
		slots:          make(map[string]model.Slot, len(s.slots)),
		requests:       make(map[string]model.SwapRequest, len(s.requests)),
		seq:            s.seq,
		clock:          s.clock,
		slotUpdateHook: s.slotUpdateHook,
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.slots {
		cp.slots[k] = v
	}
	for k, v := range s.requests {
		cp.requests[k] = v
	}
	return cp
}

func (s *mockStore) restore(from *mockStore) {
	s.users = from.users
	s.slots = from.slots
	s.requests = from.requests
	s.seq = from.seq
	s.clock = from.clock
}

// newMockRepository wires every mock repository over one store
func newMockRepository(store *mockStore) *repository.Repository {
	repo := &repository.Repository{
		User:        &mockUserRepo{store: store},
		Slot:        &mockSlotRepo{store: store},
		SwapRequest: &mockSwapRequestRepo{store: store},
	}
	repo.Tx = &mockTxRunner{store: store, repo: repo}
	return repo
}

// ── Mock TxRunner ──

// mockTxRunner runs fn against the same repositories and restores the store
// snapshot when fn fails.
type mockTxRunner struct {
	store *mockStore
	repo  *repository.Repository
	runs  int
}

func (m *mockTxRunner) RunInTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	m.runs++
	snap := m.store.snapshot()
	if err := fn(m.repo); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	store *mockStore
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.store.users {
		if strings.EqualFold(u.Email, user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = m.store.nextID("user")
	}
	now := m.store.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	m.store.users[user.UserID] = *user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.store.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.store.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SlotRepository ──

type mockSlotRepo struct {
	store *mockStore
}

func (m *mockSlotRepo) Create(_ context.Context, slot *model.Slot) error {
	if slot.SlotID == "" {
		slot.SlotID = m.store.nextID("slot")
	}
	if slot.Version == 0 {
		slot.Version = 1
	}
	now := m.store.tick()
	slot.CreatedAt, slot.UpdatedAt = now, now
	m.store.slots[slot.SlotID] = *slot
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id string) (*model.Slot, error) {
	if s, ok := m.store.slots[id]; ok {
		return &s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSlotRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Slot, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSlotRepo) list(keep func(s *model.Slot) bool) []model.Slot {
	result := []model.Slot{}
	for _, s := range m.store.slots {
		if keep(&s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].SlotID < result[j].SlotID
	})
	return result
}

func (m *mockSlotRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Slot, error) {
	return m.list(func(s *model.Slot) bool { return s.OwnerID == ownerID }), nil
}

func (m *mockSlotRepo) ListSwappable(_ context.Context, excludeOwnerID string) ([]model.Slot, error) {
	return m.list(func(s *model.Slot) bool {
		return s.Status == model.SlotSwappable && s.OwnerID != excludeOwnerID
	}), nil
}

func (m *mockSlotRepo) ListSwappableByOwner(_ context.Context, ownerID string) ([]model.Slot, error) {
	return m.list(func(s *model.Slot) bool {
		return s.Status == model.SlotSwappable && s.OwnerID == ownerID
	}), nil
}

func (m *mockSlotRepo) Update(_ context.Context, slot *model.Slot) error {
	if m.store.slotUpdateHook != nil {
		if err := m.store.slotUpdateHook(slot); err != nil {
			return err
		}
	}
	stored, ok := m.store.slots[slot.SlotID]
	if !ok || stored.Version != slot.Version {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version++
	slot.UpdatedAt = m.store.tick()
	m.store.slots[slot.SlotID] = *slot
	return nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.store.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.store.slots, id)
	return nil
}

// ── Mock SwapRequestRepository ──

type mockSwapRequestRepo struct {
	store *mockStore
}

func (m *mockSwapRequestRepo) Create(_ context.Context, req *model.SwapRequest) error {
	if req.SwapRequestID == "" {
		req.SwapRequestID = m.store.nextID("swap")
	}
	if req.Version == 0 {
		req.Version = 1
	}
	now := m.store.tick()
	req.CreatedAt, req.UpdatedAt = now, now
	m.store.requests[req.SwapRequestID] = *req
	return nil
}

func (m *mockSwapRequestRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	if r, ok := m.store.requests[id]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.SwapRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSwapRequestRepo) Resolve(_ context.Context, req *model.SwapRequest, status model.SwapStatus, at time.Time) error {
	stored, ok := m.store.requests[req.SwapRequestID]
	if !ok || stored.Version != req.Version || stored.Status != model.SwapPending {
		return pkgerrors.ErrOptimisticLock
	}
	req.Status = status
	req.RespondedAt = &at
	req.Version++
	req.UpdatedAt = m.store.tick()
	m.store.requests[req.SwapRequestID] = *req
	return nil
}

func (m *mockSwapRequestRepo) ListIncoming(_ context.Context, receiverID string) ([]repository.SwapRequestRow, error) {
	return m.list(func(r *model.SwapRequest) (bool, string) {
		return r.ReceiverID == receiverID, r.RequesterID
	}), nil
}

func (m *mockSwapRequestRepo) ListOutgoing(_ context.Context, requesterID string) ([]repository.SwapRequestRow, error) {
	return m.list(func(r *model.SwapRequest) (bool, string) {
		return r.RequesterID == requesterID, r.ReceiverID
	}), nil
}

func (m *mockSwapRequestRepo) list(match func(r *model.SwapRequest) (bool, string)) []repository.SwapRequestRow {
	rows := []repository.SwapRequestRow{}
	for _, r := range m.store.requests {
		ok, counterpartID := match(&r)
		if !ok {
			continue
		}
		row := repository.SwapRequestRow{
			SwapRequestID: r.SwapRequestID,
			RequesterID:   r.RequesterID,
			ReceiverID:    r.ReceiverID,
			MySlotID:      r.MySlotID,
			TheirSlotID:   r.TheirSlotID,
			Status:        string(r.Status),
			RespondedAt:   r.RespondedAt,
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		}
		if s, ok := m.store.slots[r.MySlotID]; ok {
			status := string(s.Status)
			row.MySlotOwnerID, row.MySlotTitle = &s.OwnerID, &s.Title
			row.MySlotStart, row.MySlotEnd, row.MySlotStatus = &s.StartTime, &s.EndTime, &status
		}
		if s, ok := m.store.slots[r.TheirSlotID]; ok {
			status := string(s.Status)
			row.TheirSlotOwnerID, row.TheirSlotTitle = &s.OwnerID, &s.Title
			row.TheirSlotStart, row.TheirSlotEnd, row.TheirSlotStatus = &s.StartTime, &s.EndTime, &status
		}
		if u, ok := m.store.users[counterpartID]; ok {
			row.CounterpartID, row.CounterpartName, row.CounterpartEmail = &u.UserID, &u.Name, &u.Email
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].SwapRequestID > rows[j].SwapRequestID
	})
	return rows
}

// ── fixtures ──

func (s *mockStore) addUser(id, name, email string) {
	now := s.tick()
	s.users[id] = model.User{UserID: id, Name: name, Email: email, BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now}}
}

func (s *mockStore) addSlot(id, ownerID string, status model.SlotStatus, start time.Time) {
	now := s.tick()
	s.slots[id] = model.Slot{
		SlotID:    id,
		OwnerID:   ownerID,
		Title:     "slot " + id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		VersionedModel: model.VersionedModel{
			BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
			Version:   1,
		},
	}
}
