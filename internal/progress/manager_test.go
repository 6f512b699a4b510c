package progress

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stakahara/shisaku/internal/initiative"
	"github.com/stakahara/shisaku/internal/storage"
	"github.com/stakahara/shisaku/internal/storage/sqlite"
)

func setupTestStore(t *testing.T) (*sqlite.Store, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpfile.Close()

	store, err := sqlite.NewStore(tmpfile.Name())
	if err != nil {
		os.Remove(tmpfile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Remove(tmpfile.Name())
	}

	return store, cleanup
}

func mustCreateInitiative(t *testing.T, store *sqlite.Store) *initiative.Initiative {
	t.Helper()

	rec, err := store.CreateInitiative(initiative.Initiative{
		Domain:      "営業",
		MeasureName: "テスト施策",
	})
	if err != nil {
		t.Fatalf("failed to create initiative: %v", err)
	}
	return rec
}

func testForm(year, quarter int, status string) initiative.ProgressLogForm {
	return initiative.ProgressLogForm{
		FiscalYear:         initiative.Int(year),
		FiscalQuarter:      initiative.Int(quarter),
		ProgressStatus:     status,
		ProgressEvaluation: "評価テキスト",
		NextAction:         "次のアクション",
		NextActionDueDate:  "2024-09-30",
	}
}

func TestSubmit_VersionSequence(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	rec := mustCreateInitiative(t, store)
	manager := NewManager(store)

	const n = 4
	for i := 1; i <= n; i++ {
		created, err := manager.Submit(rec.ID, testForm(2024, 1, fmt.Sprintf("提出%d回目", i)))
		if err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
		if created.VersionNo != i {
			t.Errorf("submission %d: expected version %d, got %d", i, i, created.VersionNo)
		}
		if !created.IsLatest {
			t.Errorf("submission %d: expected new row to be latest", i)
		}
	}

	key := initiative.PeriodKey{InitiativeID: rec.ID, FiscalYear: 2024, FiscalQuarter: 1}
	logs, err := store.FindProgressLogs(storage.ProgressFilter{Key: &key}, storage.OrderVersionDesc)
	if err != nil {
		t.Fatalf("failed to find logs: %v", err)
	}

	if len(logs) != n {
		t.Fatalf("expected %d rows, got %d", n, len(logs))
	}
	for i, log := range logs {
		wantVersion := n - i
		if log.VersionNo != wantVersion {
			t.Errorf("position %d: expected version %d, got %d", i, wantVersion, log.VersionNo)
		}
		wantLatest := wantVersion == n
		if log.IsLatest != wantLatest {
			t.Errorf("version %d: expected isLatest=%v", log.VersionNo, wantLatest)
		}
	}
}

func TestSubmit_SingleLatestAcrossGroups(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	a := mustCreateInitiative(t, store)
	b := mustCreateInitiative(t, store)
	manager := NewManager(store)

	// Interleave submissions across initiatives and periods
	submissions := []struct {
		id            int64
		year, quarter int
	}{
		{a.ID, 2024, 1},
		{b.ID, 2024, 1},
		{a.ID, 2024, 2},
		{a.ID, 2024, 1},
		{b.ID, 2024, 1},
		{a.ID, 2025, 1},
		{a.ID, 2024, 1},
	}
	for i, sub := range submissions {
		if _, err := manager.Submit(sub.id, testForm(sub.year, sub.quarter, fmt.Sprintf("状況%d", i))); err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}

	groups := []initiative.PeriodKey{
		{InitiativeID: a.ID, FiscalYear: 2024, FiscalQuarter: 1},
		{InitiativeID: a.ID, FiscalYear: 2024, FiscalQuarter: 2},
		{InitiativeID: a.ID, FiscalYear: 2025, FiscalQuarter: 1},
		{InitiativeID: b.ID, FiscalYear: 2024, FiscalQuarter: 1},
	}
	wantCounts := []int{3, 1, 1, 2}

	for i, key := range groups {
		logs, err := store.FindProgressLogs(storage.ProgressFilter{Key: &key}, storage.OrderVersionDesc)
		if err != nil {
			t.Fatalf("failed to find logs: %v", err)
		}
		if len(logs) != wantCounts[i] {
			t.Errorf("group %+v: expected %d rows, got %d", key, wantCounts[i], len(logs))
		}

		latest := 0
		for _, log := range logs {
			if log.IsLatest {
				latest++
				if log.VersionNo != len(logs) {
					t.Errorf("group %+v: latest flag on version %d, expected %d", key, log.VersionNo, len(logs))
				}
			}
		}
		if latest != 1 {
			t.Errorf("group %+v: expected exactly one latest row, got %d", key, latest)
		}
	}
}

func TestSubmit_InitiativeNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	manager := NewManager(store)

	_, err := manager.Submit(999, testForm(2024, 1, "順調"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCorrect_LeavesVersioningUntouched(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	rec := mustCreateInitiative(t, store)
	manager := NewManager(store)

	v1, err := manager.Submit(rec.ID, testForm(2024, 1, "未着手"))
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if _, err := manager.Submit(rec.ID, testForm(2024, 1, "順調")); err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	// Correct the retired first version
	form := testForm(2024, 1, "遅延")
	form.ProgressEvaluation = "評価を修正"
	corrected, err := manager.Correct(v1.ID, rec.ID, form)
	if err != nil {
		t.Fatalf("correction failed: %v", err)
	}

	if corrected.ProgressStatus != "遅延" || corrected.ProgressEvaluation != "評価を修正" {
		t.Errorf("content fields not updated: %+v", corrected)
	}
	if corrected.VersionNo != 1 {
		t.Errorf("correction changed version number: %d", corrected.VersionNo)
	}
	if corrected.IsLatest {
		t.Error("correction flipped the latest flag")
	}

	// No new row, and the group's latest row is unchanged
	key := initiative.PeriodKey{InitiativeID: rec.ID, FiscalYear: 2024, FiscalQuarter: 1}
	logs, err := store.FindProgressLogs(storage.ProgressFilter{Key: &key}, storage.OrderVersionDesc)
	if err != nil {
		t.Fatalf("failed to find logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 rows after correction, got %d", len(logs))
	}
	if logs[0].VersionNo != 2 || !logs[0].IsLatest {
		t.Errorf("latest row disturbed by correction: %+v", logs[0])
	}
}

func TestCorrect_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	a := mustCreateInitiative(t, store)
	b := mustCreateInitiative(t, store)
	manager := NewManager(store)

	v1, err := manager.Submit(a.ID, testForm(2024, 1, "順調"))
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	// Absent log id
	if _, err := manager.Correct(v1.ID+100, a.ID, testForm(2024, 1, "順調")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent log, got %v", err)
	}

	// Log belongs to a different initiative
	if _, err := manager.Correct(v1.ID, b.ID, testForm(2024, 1, "順調")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for cross-initiative correction, got %v", err)
	}
}

// failingStore wraps a real store and makes the insert inside the versioning
// transaction fail, after the retiring update has already run.
type failingStore struct {
	storage.Store
}

func (f *failingStore) InTransaction(fn func(storage.ProgressQuerier) error) error {
	return f.Store.InTransaction(func(q storage.ProgressQuerier) error {
		return fn(&failingQuerier{q})
	})
}

type failingQuerier struct {
	storage.ProgressQuerier
}

func (f *failingQuerier) CreateProgressLog(initiative.ProgressLog) (*initiative.ProgressLog, error) {
	return nil, errors.New("induced insert failure")
}

func TestSubmit_RollbackKeepsPriorLatest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	rec := mustCreateInitiative(t, store)

	if _, err := NewManager(store).Submit(rec.ID, testForm(2024, 1, "未着手")); err != nil {
		t.Fatalf("seed submission failed: %v", err)
	}

	// The retiring update runs, then the insert fails; the transaction must
	// roll back as a unit.
	_, err := NewManager(&failingStore{store}).Submit(rec.ID, testForm(2024, 1, "順調"))
	if err == nil {
		t.Fatal("expected induced failure")
	}

	key := initiative.PeriodKey{InitiativeID: rec.ID, FiscalYear: 2024, FiscalQuarter: 1}
	logs, err := store.FindProgressLogs(storage.ProgressFilter{Key: &key}, storage.OrderVersionDesc)
	if err != nil {
		t.Fatalf("failed to find logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected the single prior row, got %d", len(logs))
	}
	if logs[0].VersionNo != 1 || !logs[0].IsLatest {
		t.Errorf("prior latest row lost its flag after rollback: %+v", logs[0])
	}
}

func TestList_ScopedToInitiative(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	rec := mustCreateInitiative(t, store)
	manager := NewManager(store)

	if _, err := manager.Submit(rec.ID, testForm(2024, 1, "順調")); err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	// Zero is a well-formed id with no initiative behind it; it must scope
	// the listing like any other id, not widen it to every log in the
	// database.
	for _, id := range []int64{0, rec.ID + 1} {
		logs, err := manager.List(id)
		if err != nil {
			t.Fatalf("list for id %d failed: %v", id, err)
		}
		if len(logs) != 0 {
			t.Errorf("list for id %d returned %d logs from other initiatives", id, len(logs))
		}
	}
}

func TestList_Ordering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	rec := mustCreateInitiative(t, store)
	manager := NewManager(store)

	submissions := []struct{ year, quarter int }{
		{2024, 1},
		{2024, 1},
		{2024, 3},
		{2025, 2},
	}
	for i, sub := range submissions {
		if _, err := manager.Submit(rec.ID, testForm(sub.year, sub.quarter, fmt.Sprintf("状況%d", i))); err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}

	logs, err := manager.List(rec.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	type key struct{ year, quarter, version int }
	want := []key{
		{2025, 2, 1},
		{2024, 3, 1},
		{2024, 1, 2},
		{2024, 1, 1},
	}
	if len(logs) != len(want) {
		t.Fatalf("expected %d logs, got %d", len(want), len(logs))
	}
	for i, w := range want {
		got := key{logs[i].FiscalYear, logs[i].FiscalQuarter, logs[i].VersionNo}
		if got != w {
			t.Errorf("position %d: expected %+v, got %+v", i, w, got)
		}
	}
}
