//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
	"swapslot/backend/internal/service"
	"swapslot/backend/pkg/database"
	pkgerrors "swapslot/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=swapslot password=swapslot dbname=swapslot_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unwrap sql.DB: %v\n", err)
		os.Exit(1)
	}
	// schema comes from the embedded migrations, same as production
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "run migrations: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupSlots creates n users with one SWAPPABLE slot each and returns a cleanup func
func setupSlots(t *testing.T, n int) (slots []*model.Slot, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	suffix := time.Now().UnixNano()
	userIDs := make([]string, n)
	start := time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)
	slots = make([]*model.Slot, n)
	for i := 0; i < n; i++ {
		u := &model.User{
			Name:         fmt.Sprintf("user-%d", i),
			Email:        fmt.Sprintf("user-%d-%d@example.com", i, suffix),
			PasswordHash: "x",
		}
		if err := repo.User.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		userIDs[i] = u.UserID

		slots[i] = &model.Slot{
			OwnerID:   u.UserID,
			Title:     fmt.Sprintf("slot-%d", i),
			StartTime: start.Add(time.Duration(i) * time.Hour),
			EndTime:   start.Add(time.Duration(i+1) * time.Hour),
			Status:    model.SlotSwappable,
		}
		if err := repo.Slot.Create(ctx, slots[i]); err != nil {
			t.Fatalf("create slot: %v", err)
		}
	}

	cleanup = func() {
		testDB.Exec("DELETE FROM swap_requests WHERE requester_id IN ? OR receiver_id IN ?", userIDs, userIDs)
		testDB.Exec("DELETE FROM slots WHERE owner_id IN ?", userIDs)
		testDB.Exec("DELETE FROM users WHERE user_id IN ?", userIDs)
	}
	return slots, cleanup
}

func newSwapService() service.SwapService {
	return service.NewSwapService(repository.NewRepository(testDB), service.NewAccessPolicy(), zap.NewNop())
}

func reloadSlot(t *testing.T, id string) *model.Slot {
	t.Helper()
	s, err := repository.NewRepository(testDB).Slot.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload slot %s: %v", id, err)
	}
	return s
}

// ═══════════════════════════════════════════════════════════
// Transactions
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	slots, cleanup := setupSlots(t, 1)
	defer cleanup()
	a := slots[0]

	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Slot.GetByIDForUpdate(ctx, a.SlotID)
		if err != nil {
			return err
		}
		locked.Status = model.SlotSwapPending
		if err := tx.Slot.Update(ctx, locked); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	got, err := repo.Slot.GetByID(ctx, a.SlotID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != model.SlotSwappable {
		t.Errorf("expected rollback to SWAPPABLE, got %s", got.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// Concurrency
// ═══════════════════════════════════════════════════════════

// Competing creates over slot A: the owner of A offers it for B while the
// owner of C asks for A. Row locks serialize them, so one request is
// created and every other attempt sees A already SWAP_PENDING.
func TestConcurrentCreate_OneWinner(t *testing.T) {
	slots, cleanup := setupSlots(t, 3)
	defer cleanup()
	a, b, c := slots[0], slots[1], slots[2]

	ctx := context.Background()
	svc := newSwapService()

	type attempt struct{ caller, mine, theirs string }
	attempts := []attempt{
		{a.OwnerID, a.SlotID, b.SlotID},
		{c.OwnerID, c.SlotID, a.SlotID},
		{a.OwnerID, a.SlotID, b.SlotID},
		{c.OwnerID, c.SlotID, a.SlotID},
		{a.OwnerID, a.SlotID, b.SlotID},
		{c.OwnerID, c.SlotID, a.SlotID},
	}

	var wg sync.WaitGroup
	results := make([]*dto.SwapRequestResponse, len(attempts))
	errs := make([]error, len(attempts))
	for i, at := range attempts {
		wg.Add(1)
		go func(i int, at attempt) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateSwapRequest(ctx, at.caller, at.mine, at.theirs)
		}(i, at)
	}
	wg.Wait()

	var winner *dto.SwapRequestResponse
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != nil {
				t.Fatalf("two requests created: %s and %s", winner.ID, results[i].ID)
			}
			winner = results[i]
		case pkgerrors.KindOf(err) != pkgerrors.KindConflict:
			t.Errorf("loser should get a conflict, got %v", err)
		}
	}
	if winner == nil {
		t.Fatal("expected exactly one request to be created")
	}

	var count int64
	testDB.Model(&model.SwapRequest{}).
		Where("my_slot_id = ? OR their_slot_id = ?", a.SlotID, a.SlotID).
		Count(&count)
	if count != 1 {
		t.Errorf("expected 1 swap request touching A, got %d", count)
	}

	if got := reloadSlot(t, a.SlotID).Status; got != model.SlotSwapPending {
		t.Errorf("A: expected SWAP_PENDING, got %s", got)
	}
	pending, idle := b, c
	if winner.RequesterID == c.OwnerID {
		pending, idle = c, b
	}
	if got := reloadSlot(t, pending.SlotID).Status; got != model.SlotSwapPending {
		t.Errorf("winning counterpart: expected SWAP_PENDING, got %s", got)
	}
	if got := reloadSlot(t, idle.SlotID).Status; got != model.SlotSwappable {
		t.Errorf("losing counterpart: expected SWAPPABLE, got %s", got)
	}
}

// Concurrent ACCEPT/REJECT by the receiver: one response resolves the
// request and the rest see it already resolved.
func TestConcurrentRespond_OneWinner(t *testing.T) {
	slots, cleanup := setupSlots(t, 2)
	defer cleanup()
	a, b := slots[0], slots[1]

	ctx := context.Background()
	svc := newSwapService()

	created, err := svc.CreateSwapRequest(ctx, a.OwnerID, a.SlotID, b.SlotID)
	if err != nil {
		t.Fatalf("create swap request: %v", err)
	}

	actions := []dto.SwapAction{
		dto.SwapActionAccept, dto.SwapActionReject, dto.SwapActionAccept,
		dto.SwapActionReject, dto.SwapActionAccept, dto.SwapActionReject,
	}
	var wg sync.WaitGroup
	results := make([]*dto.SwapRequestResponse, len(actions))
	errs := make([]error, len(actions))
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action dto.SwapAction) {
			defer wg.Done()
			results[i], errs[i] = svc.RespondToSwap(ctx, b.OwnerID, created.ID, action)
		}(i, action)
	}
	wg.Wait()

	var winner *dto.SwapRequestResponse
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != nil {
				t.Fatal("request resolved twice")
			}
			winner = results[i]
		case !errors.Is(err, service.ErrRequestResolved):
			t.Errorf("loser should see ErrRequestResolved, got %v", err)
		}
	}
	if winner == nil {
		t.Fatal("expected exactly one response to resolve the request")
	}

	gotA, gotB := reloadSlot(t, a.SlotID), reloadSlot(t, b.SlotID)
	switch model.SwapStatus(winner.Status) {
	case model.SwapAccepted:
		if gotA.OwnerID != b.OwnerID || gotB.OwnerID != a.OwnerID {
			t.Error("accept should exchange owners")
		}
		if gotA.Status != model.SlotBusy || gotB.Status != model.SlotBusy {
			t.Errorf("expected both BUSY, got %s/%s", gotA.Status, gotB.Status)
		}
	case model.SwapRejected:
		if gotA.OwnerID != a.OwnerID || gotB.OwnerID != b.OwnerID {
			t.Error("reject should keep owners")
		}
		if gotA.Status != model.SlotSwappable || gotB.Status != model.SlotSwappable {
			t.Errorf("expected both SWAPPABLE, got %s/%s", gotA.Status, gotB.Status)
		}
	default:
		t.Fatalf("unexpected winner status %s", winner.Status)
	}
}
