package complaint

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrate_CoercesLooseRows(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, pkt)
	data := []byte(`[
		{
			"id": "IMP-1",
			"regDate": "3/4/2024 2:15 PM",
			"updateDate": 45000.5,
			"dop": "2023-01-09",
			"status": " verified ",
			"techName": "---",
			"model": "GD-700",
			"visitCharges": "500",
			"partsCharges": 120.9,
			"otherCharges": -20,
			"complaintNo": 88123
		},
		{"id": "IMP-2"}
	]`)

	records, err := Migrate(data, testNormalizer(now))
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records but got %d", len(records))
	}

	r := records[0]
	checks := []struct {
		field    string
		got      any
		expected any
	}{
		{"RegistrationDate", r.RegistrationDate, "04-03-2024 14:15"},
		{"LastUpdateDate", r.LastUpdateDate, "15-03-2023 12:00"},
		{"PurchaseDate", r.PurchaseDate, "09-01-2023"},
		{"Status", r.Status, StatusVerified},
		{"Assignee", r.Assignee, Unassigned},
		{"Product", r.Product, ""},
		{"VisitCharges", r.VisitCharges, 500},
		{"PartsCharges", r.PartsCharges, 120},
		{"OtherCharges", r.OtherCharges, 0},
		{"ComplaintNo", r.ComplaintNo, "88123"},
		{"Aging", r.Aging, 67},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %v but got %v", c.field, c.expected, c.got)
		}
	}

	empty := records[1]
	if empty.Status != StatusPending || empty.Assignee != Unassigned || empty.Priority != "NORMAL" {
		t.Errorf("expected defaults on sparse row but got %+v", empty)
	}
	if empty.RegistrationDate != "" || empty.Aging != 0 {
		t.Errorf("expected no date and zero aging but got %q / %d", empty.RegistrationDate, empty.Aging)
	}
}

func TestMigrate_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		records, err := Migrate([]byte(in), testNormalizer(time.Now()))
		if err != nil {
			t.Errorf("Migrate(%q): expected no error but got %v", in, err)
		}
		if len(records) != 0 {
			t.Errorf("Migrate(%q): expected no records but got %d", in, len(records))
		}
	}
}

func TestMigrate_RejectsNonArray(t *testing.T) {
	if _, err := Migrate([]byte(`{"id":"x"}`), testNormalizer(time.Now())); err == nil {
		t.Error("expected error for object payload")
	}
}

func TestParseStatusAndAssignee(t *testing.T) {
	if ParseStatus("") != StatusPending {
		t.Error("expected empty status to default to PENDING")
	}
	if ParseStatus("on route") != StatusOnRoute {
		t.Error("expected case-insensitive status parsing")
	}
	if s := ParseStatus("waiting for god"); s.Known() {
		t.Errorf("expected %q to be unknown", s)
	}
	if !StatusTemporaryClosed.TechnicianSettable() || StatusVerified.TechnicianSettable() {
		t.Error("technician status set is wrong")
	}
	if !StatusVerified.Done() || StatusPending.Done() {
		t.Error("done status set is wrong")
	}

	for _, in := range []string{"", "  ", "---", "unassigned"} {
		if ParseAssignee(in) != Unassigned {
			t.Errorf("expected %q to mean unassigned", in)
		}
	}
	if a := ParseAssignee(" imran "); a != "IMRAN" || !a.Assigned() {
		t.Errorf("unexpected assignee %q", a)
	}
}

func TestCatalog_Product(t *testing.T) {
	catalog := Catalog{"SAC-18": "AIR CONDITIONER"}

	tests := []struct {
		name     string
		catalog  Catalog
		model    string
		expected string
	}{
		{name: "spinner code", catalog: nil, model: "sd-555", expected: SpinnerProduct},
		{name: "spinner name", catalog: nil, model: "NEW SUPER SPIN 9", expected: SpinnerProduct},
		{name: "nil catalog", catalog: nil, model: "SAC-18", expected: GeneralProduct},
		{name: "catalog hit", catalog: catalog, model: " sac-18 ", expected: "AIR CONDITIONER"},
		{name: "spinner wins over catalog", catalog: Catalog{"SD-555": "DRYER"}, model: "SD-555", expected: SpinnerProduct},
		{name: "catalog miss", catalog: catalog, model: "UNKNOWN-MODEL-123", expected: GeneralProduct},
		{name: "empty model", catalog: catalog, model: "", expected: GeneralProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.catalog.Product(tt.model); got != tt.expected {
				t.Errorf("Product(%q): expected %q but got %q", tt.model, tt.expected, got)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "products.hujson")
	seed := `{
		// washers
		"sa-240 ": "washing machine",
		"GD-700": "REFRIGERATOR", // trailing comma next
	}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("expected no error writing seed but got: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if got := catalog.Product("SA-240"); got != "WASHING MACHINE" {
		t.Errorf("expected WASHING MACHINE but got %q", got)
	}
	if got := catalog.Product("gd-700"); got != "REFRIGERATOR" {
		t.Errorf("expected REFRIGERATOR but got %q", got)
	}

	missing, err := LoadCatalog(filepath.Join(dir, "absent.hujson"))
	if err != nil || missing != nil {
		t.Errorf("expected nil catalog for a missing file but got %v, %v", missing, err)
	}

	empty, err := LoadCatalog("")
	if err != nil || empty != nil {
		t.Errorf("expected nil catalog for no path but got %v, %v", empty, err)
	}

	bad := filepath.Join(dir, "bad.hujson")
	_ = os.WriteFile(bad, []byte(`["not", "an", "object"]`), 0o644)
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected an error for a list instead of an object")
	}
}
