package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"servicedesk/internal/complaint"
	"servicedesk/internal/errors"
	"servicedesk/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const seedFile = `[
	// office
	{"name": "Balaj Ansari", "contact": "0315 2753537", "position": "ADMIN", "loginId": "balaj", "pin": "123"},
	// field
	{"name": "Muhammad Imran", "position": "TECHNICIAN", "loginId": "IMRAN", "importKey": "M. IMRAN"},
	{"name": "Zahid Hussain", "position": "TECHNICIAN", "loginId": "ZAHID"},
	{"name": "Old Hand", "position": "TECHNICIAN", "loginId": "OLD", "status": "inactive"},
]`

func openSeeded(t *testing.T) (*Directory, *storage.MemoryStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staff.hujson")
	if err := os.WriteFile(path, []byte(seedFile), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	store := storage.NewMemoryStore()
	d, err := OpenDirectory(store, Options{SeedFile: path, HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	return d, store
}

func TestOpenDirectory_SeedsFromFile(t *testing.T) {
	d, store := openSeeded(t)

	if n := len(d.Staff()); n != 4 {
		t.Fatalf("expected 4 staff but got %d", n)
	}
	if n := len(d.Technicians()); n != 2 {
		t.Errorf("expected 2 active technicians but got %d", n)
	}
	if store.Saves() != 1 {
		t.Errorf("expected seeded directory to be saved once but got %d saves", store.Saves())
	}

	admin, ok := d.Lookup("BALAJ")
	if !ok {
		t.Fatal("expected BALAJ to exist")
	}
	if admin.PinHash == "" || admin.PinHash == "123" {
		t.Errorf("expected hashed PIN but got %q", admin.PinHash)
	}
	if admin.ImportKey != "BALAJ ANSARI" {
		t.Errorf("expected import key to default to name but got %q", admin.ImportKey)
	}
}

func TestOpenDirectory_DefaultSeed(t *testing.T) {
	d, err := OpenDirectory(storage.NewMemoryStore(), Options{SeedFile: filepath.Join(t.TempDir(), "missing.hujson"), HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if _, err := d.Authenticate("DEV", "786"); err != nil {
		t.Errorf("expected built-in developer login to work but got: %v", err)
	}
}

func TestOpenDirectory_ReopensSavedDirectory(t *testing.T) {
	d, store := openSeeded(t)
	if _, err := d.Add(SeedEntry{Name: "Kashif", LoginID: "KASHIF"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened, err := OpenDirectory(store, Options{SeedFile: "does-not-matter", HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if _, ok := reopened.Lookup("KASHIF"); !ok {
		t.Error("expected added staff to survive reopen")
	}
}

func TestOpenDirectory_BadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staff.hujson")
	os.WriteFile(path, []byte(`[{"name": `), 0o644)

	if _, err := OpenDirectory(storage.NewMemoryStore(), Options{SeedFile: path}); err == nil {
		t.Error("expected error for malformed seed file")
	}
}

func TestAuthenticate(t *testing.T) {
	d, _ := openSeeded(t)

	tests := []struct {
		name    string
		loginID string
		pin     string
		wantErr bool
	}{
		{"admin with PIN", "BALAJ", "123", false},
		{"admin lowercase ID", "balaj", "123", false},
		{"admin wrong PIN", "BALAJ", "321", true},
		{"admin no PIN", "BALAJ", "", true},
		{"technician without PIN", "IMRAN", "", false},
		{"technician ignores PIN", "ZAHID", "anything", false},
		{"inactive technician", "OLD", "", true},
		{"unknown", "NOBODY", "123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Authenticate(tt.loginID, tt.pin)
			if tt.wantErr {
				if !errors.IsAuthFailed(err) {
					t.Errorf("expected AuthFailedError but got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestSession_Permissions(t *testing.T) {
	d, _ := openSeeded(t)
	tech, _ := d.Authenticate("IMRAN", "")
	admin, _ := d.Authenticate("BALAJ", "123")

	if !tech.CanSetStatus(complaint.StatusTemporaryClosed) || tech.CanSetStatus(complaint.StatusCompleted) {
		t.Error("technician status permissions are wrong")
	}
	if !admin.CanSetStatus(complaint.StatusVerified) || admin.CanSetStatus("MADE UP") {
		t.Error("admin status permissions are wrong")
	}
	if err := tech.Authorize("import"); !errors.IsPermission(err) {
		t.Errorf("expected PermissionError for technician import but got %v", err)
	}
	if err := admin.Authorize("import"); err != nil {
		t.Errorf("expected admin import to be allowed but got %v", err)
	}
	if !tech.CanSee(complaint.Record{Assignee: "MUHAMMAD IMRAN"}) || tech.CanSee(complaint.Record{Assignee: "ZAHID HUSSAIN"}) {
		t.Error("technician visibility is wrong")
	}
}

func TestMatchTechnician(t *testing.T) {
	d, _ := openSeeded(t)

	tests := map[string]complaint.Assignee{
		"":                    complaint.Unassigned,
		"---":                 complaint.Unassigned,
		"unassigned":          complaint.Unassigned,
		"imran":               "MUHAMMAD IMRAN",
		"m. imran":            "MUHAMMAD IMRAN",
		"Zahid Hussain (KHI)": "ZAHID HUSSAIN",
		"balaj":               "BALAJ",
		"someone new":         "SOMEONE NEW",
	}
	for in, want := range tests {
		if got := d.MatchTechnician(in); got != want {
			t.Errorf("MatchTechnician(%q): expected %q but got %q", in, want, got)
		}
		// second call is served from the cache and must agree
		if got := d.MatchTechnician(in); got != want {
			t.Errorf("cached MatchTechnician(%q): expected %q but got %q", in, want, got)
		}
	}
}

func TestAdd_Validation(t *testing.T) {
	d, _ := openSeeded(t)

	if _, err := d.Add(SeedEntry{Name: "Dup", LoginID: "imran"}); err == nil {
		t.Error("expected duplicate login ID to be rejected")
	}
	if _, err := d.Add(SeedEntry{Name: "Boss", LoginID: "BOSS", Position: "ADMIN"}); err == nil {
		t.Error("expected admin without PIN to be rejected")
	}
	if _, err := d.Add(SeedEntry{LoginID: "X"}); err == nil {
		t.Error("expected missing name to be rejected")
	}
}

func TestTokenManager(t *testing.T) {
	d, _ := openSeeded(t)
	session, _ := d.Authenticate("BALAJ", "123")

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewTokenManager("a-secret-that-is-long-enough-for-hs256", 8*time.Hour, clock)

	token, err := m.Issue(session)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resumed, err := d.Resume(m, token)
	if err != nil {
		t.Fatalf("expected token to resume but got: %v", err)
	}
	if resumed.Staff.LoginID != "BALAJ" {
		t.Errorf("expected BALAJ but got %s", resumed.Staff.LoginID)
	}

	other := NewTokenManager("another-secret-that-is-long-enough", 8*time.Hour, clock)
	if _, err := other.Verify(token); err == nil {
		t.Error("expected token signed with another secret to fail")
	}

	now = now.Add(9 * time.Hour)
	if _, err := m.Verify(token); err == nil {
		t.Error("expected expired token to fail")
	}
	if _, err := m.Verify(""); err == nil {
		t.Error("expected empty token to fail")
	}
}
