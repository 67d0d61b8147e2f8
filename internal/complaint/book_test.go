package complaint

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"servicedesk/internal/dates"
	"servicedesk/internal/errors"
	"servicedesk/internal/storage"

	"github.com/google/go-cmp/cmp"
)

var pkt = time.FixedZone("PKT", 5*60*60)

func testNormalizer(now time.Time) *dates.Normalizer {
	return dates.New(pkt, func() time.Time { return now })
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ID-%d", n)
	}
}

func openBook(t *testing.T, store storage.Store, norm *dates.Normalizer) *Book {
	t.Helper()
	b, err := Open(store, norm, Options{NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("expected no error opening book but got: %v", err)
	}
	return b
}

type countingObserver struct {
	calls int
	last  int
}

func (o *countingObserver) Saved(n int) {
	o.calls++
	o.last = n
}

func TestBook_OpenEmptyStore(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))

	if b.Len() != 0 {
		t.Errorf("expected empty book but got %d records", b.Len())
	}

	data, err := b.Export()
	if err != nil {
		t.Fatalf("expected no error exporting but got: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected empty JSON array but got %s", data)
	}
}

func TestBook_OpenRecomputesAging(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, pkt)
	store := storage.NewMemoryStore()
	_ = store.Save(DefaultKey, []byte(`[{"id":"a","regDate":"05-05-2024 09:00","customerName":"ALI"}]`))

	b := openBook(t, store, testNormalizer(now))

	r, err := b.Get("a")
	if err != nil {
		t.Fatalf("expected record but got: %v", err)
	}
	if r.Aging != 5 {
		t.Errorf("expected aging 5 but got %d", r.Aging)
	}

	later := openBook(t, store, testNormalizer(now.AddDate(0, 0, 2)))
	r, _ = later.Get("a")
	if r.Aging != 7 {
		t.Errorf("expected aging 7 two days later but got %d", r.Aging)
	}
}

func TestBook_OpenMigratesLegacyKey(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Save("superasia_v11", []byte(`[{"id":"old","regDate":45000,"status":"completed"}]`))

	b, err := Open(store, testNormalizer(time.Now()), Options{LegacyKeys: []string{"superasia_v10", "superasia_v11"}})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	r, err := b.Get("old")
	if err != nil {
		t.Fatalf("expected migrated record but got: %v", err)
	}
	if r.RegistrationDate != "15-03-2023 00:00" {
		t.Errorf("expected serial date normalized but got %q", r.RegistrationDate)
	}
	if r.Status != StatusCompleted {
		t.Errorf("expected COMPLETED but got %q", r.Status)
	}

	if _, ok, _ := store.Load(DefaultKey); !ok {
		t.Error("expected migrated collection saved under the current key")
	}
}

func TestBook_OpenRejectsCorruptStore(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Save(DefaultKey, []byte(`{"not":"an array"}`))

	_, err := Open(store, testNormalizer(time.Now()), Options{})
	if !errors.IsStore(err) {
		t.Errorf("expected StoreError but got %v", err)
	}
}

func TestBook_CreateAppliesDefaults(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 4, 0, 0, pkt)
	obs := &countingObserver{}
	b, err := Open(storage.NewMemoryStore(), testNormalizer(now), Options{NewID: sequentialIDs(), Observer: obs})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	r, err := b.Create(Record{CustomerName: "ZAIN", Model: "SD-555 DELUXE", VisitCharges: -50})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	want := Record{
		ID:               "ID-1",
		CustomerName:     "ZAIN",
		Model:            "SD-555 DELUXE",
		Product:          "SPINNER",
		Priority:         "NORMAL",
		Status:           StatusPending,
		Assignee:         Unassigned,
		RegistrationDate: "10-05-2024 15:04",
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("created record mismatch (-want +got):\n%s", diff)
	}

	if obs.calls != 1 || obs.last != 1 {
		t.Errorf("expected one save of 1 record but got calls=%d last=%d", obs.calls, obs.last)
	}
}

func TestBook_CatalogResolvesProducts(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, pkt)
	store := storage.NewMemoryStore()
	_ = store.Save(DefaultKey, []byte(`[
		{"id":"a","model":"GD-700","customerName":"ALI"},
		{"id":"b","model":"GD-700","product":"FREEZER","customerName":"SANA"}
	]`))
	catalog := Catalog{"GD-700": "REFRIGERATOR", "SAC-18": "AIR CONDITIONER"}

	b, err := Open(store, testNormalizer(now), Options{NewID: sequentialIDs(), Catalog: catalog})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	stored, _ := b.Get("a")
	if stored.Product != "REFRIGERATOR" {
		t.Errorf("expected missing product resolved to REFRIGERATOR but got %q", stored.Product)
	}
	kept, _ := b.Get("b")
	if kept.Product != "FREEZER" {
		t.Errorf("expected recorded product kept but got %q", kept.Product)
	}

	created, err := b.Create(Record{CustomerName: "ZAIN", Model: "sac-18"})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if created.Product != "AIR CONDITIONER" {
		t.Errorf("expected AIR CONDITIONER but got %q", created.Product)
	}

	model := "UNKNOWN-1"
	updated, err := b.Update("b", Patch{Model: &model})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if updated.Product != GeneralProduct {
		t.Errorf("expected a model change to re-resolve to %s but got %q", GeneralProduct, updated.Product)
	}
}

func TestBook_CreateNeverReusesID(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))

	first, _ := b.Create(Record{ID: "X", CustomerName: "A"})
	second, _ := b.Create(Record{ID: first.ID, CustomerName: "B"})

	if first.ID == second.ID {
		t.Errorf("expected distinct IDs but both are %q", first.ID)
	}
	if b.Records()[0].ID != second.ID {
		t.Error("expected newest record first")
	}
}

func TestBook_UpdateStampsLastUpdate(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, pkt)
	store := storage.NewMemoryStore()
	b := openBook(t, store, testNormalizer(now))

	created, _ := b.Create(Record{CustomerName: "A", RegistrationDate: "01-05-2024"})

	status := StatusOnRoute
	tech := Assignee("IMRAN")
	parts := 1500
	updated, err := b.Update(created.ID, Patch{Status: &status, Assignee: &tech, PartsCharges: &parts})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	if updated.LastUpdateDate != "10-05-2024 09:30" {
		t.Errorf("expected update date stamped but got %q", updated.LastUpdateDate)
	}
	if updated.Status != StatusOnRoute || updated.Assignee != "IMRAN" || updated.PartsCharges != 1500 {
		t.Errorf("patch not applied: %+v", updated)
	}

	reopened := openBook(t, store, testNormalizer(now))
	got, _ := reopened.Get(created.ID)
	if got.Status != StatusOnRoute {
		t.Errorf("expected update persisted but got status %q", got.Status)
	}
}

func TestBook_UpdateUnknownID(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))

	_, err := b.Update("missing", Patch{})
	if !errors.IsNotFound(err) {
		t.Errorf("expected NotFoundError but got %v", err)
	}
}

func TestBook_Stamp(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 45, 0, 0, pkt)
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(now))

	created, _ := b.Create(Record{CustomerName: "A", Remarks: "visited"})
	stamped, err := b.Stamp(created.ID)
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	if stamped.Remarks != "visited\n[10-05-2024 18:45]: " {
		t.Errorf("unexpected remarks %q", stamped.Remarks)
	}
}

func TestBook_ImportPrependsInOrder(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))
	_, _ = b.Create(Record{CustomerName: "EXISTING"})

	n, err := b.Import([]Record{{CustomerName: "ONE"}, {CustomerName: "TWO"}})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported but got %d", n)
	}

	var names []string
	for _, r := range b.Records() {
		names = append(names, r.CustomerName)
	}
	if diff := cmp.Diff([]string{"ONE", "TWO", "EXISTING"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBook_ExportRestoreMovesData(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, pkt)
	source := openBook(t, storage.NewMemoryStore(), testNormalizer(now))
	_, _ = source.Create(Record{CustomerName: "A", RegistrationDate: "03/04/2024"})
	_, _ = source.Create(Record{CustomerName: "B"})

	backup, err := source.Export()
	if err != nil {
		t.Fatalf("expected no error exporting but got: %v", err)
	}
	if strings.Contains(string(backup), "Aging") || strings.Contains(string(backup), "aging") {
		t.Error("expected aging to be left out of the backup")
	}

	target := openBook(t, storage.NewMemoryStore(), testNormalizer(now))
	_, _ = target.Create(Record{CustomerName: "WILL BE REPLACED"})

	n, err := target.Restore(backup)
	if err != nil {
		t.Fatalf("expected no error restoring but got: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 records restored but got %d", n)
	}
	if diff := cmp.Diff(source.Records(), target.Records()); diff != "" {
		t.Errorf("restored collection mismatch (-source +target):\n%s", diff)
	}
}

func TestBook_RestoreRejectsGarbage(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))
	_, _ = b.Create(Record{CustomerName: "KEEP"})

	if _, err := b.Restore([]byte("not json")); err == nil {
		t.Fatal("expected error for garbage backup")
	}
	if b.Len() != 1 {
		t.Errorf("expected collection untouched but got %d records", b.Len())
	}
}

// Two sessions on one store do not see each other's edits; the last save wins.
func TestBook_LastWriterWins(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()

	seed := openBook(t, store, testNormalizer(now))
	created, _ := seed.Create(Record{CustomerName: "SHARED"})

	tabA := openBook(t, store, testNormalizer(now))
	tabB := openBook(t, store, testNormalizer(now))

	completed := StatusCompleted
	if _, err := tabA.Update(created.ID, Patch{Status: &completed}); err != nil {
		t.Fatalf("tab A update failed: %v", err)
	}

	remarks := "customer not home"
	if _, err := tabB.Update(created.ID, Patch{Remarks: &remarks}); err != nil {
		t.Fatalf("tab B update failed: %v", err)
	}

	final := openBook(t, store, testNormalizer(now))
	got, _ := final.Get(created.ID)
	if got.Status != StatusPending {
		t.Errorf("expected tab A's status change to be overwritten but got %q", got.Status)
	}
	if got.Remarks != remarks {
		t.Errorf("expected tab B's remarks but got %q", got.Remarks)
	}
}

type failingStore struct{ storage.Store }

func (failingStore) Save(string, []byte) error { return fmt.Errorf("quota exceeded") }

func TestBook_FailedSaveLeavesMemoryUntouched(t *testing.T) {
	mem := storage.NewMemoryStore()
	seed := openBook(t, mem, testNormalizer(time.Now()))
	created, _ := seed.Create(Record{CustomerName: "A"})

	b := openBook(t, failingStore{mem}, testNormalizer(time.Now()))
	status := StatusVerified
	_, err := b.Update(created.ID, Patch{Status: &status})
	if !errors.IsStore(err) {
		t.Fatalf("expected StoreError but got %v", err)
	}

	got, _ := b.Get(created.ID)
	if got.Status != StatusPending {
		t.Errorf("expected in-memory record unchanged but got %q", got.Status)
	}
}

func TestBook_Technicians(t *testing.T) {
	b := openBook(t, storage.NewMemoryStore(), testNormalizer(time.Now()))
	_, _ = b.Import([]Record{
		{CustomerName: "1", Assignee: "ZAHID"},
		{CustomerName: "2", Assignee: Unassigned},
		{CustomerName: "3", Assignee: "ASIF"},
		{CustomerName: "4", Assignee: "ZAHID"},
	})

	if diff := cmp.Diff([]string{"ASIF", "ZAHID"}, b.Technicians()); diff != "" {
		t.Errorf("technicians mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordJSONNames(t *testing.T) {
	data, err := json.Marshal(Record{ID: "1", Assignee: "A", RegistrationDate: "01-01-2024", PurchaseDate: "02-02-2020", Aging: 9})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, key := range []string{`"techName":"A"`, `"regDate":"01-01-2024"`, `"dop":"02-02-2020"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
}
