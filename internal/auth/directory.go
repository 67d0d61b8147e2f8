package auth

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"servicedesk/internal/complaint"
	"servicedesk/internal/errors"
	"servicedesk/internal/storage"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tailscale/hujson"
	"golang.org/x/crypto/bcrypt"
)

// DefaultKey is the store key of the staff directory.
const DefaultKey = "superasia_v2_staff_db"

// matchCacheSize bounds the memo of resolved technician names. Imports see
// the same handful of spellings thousands of times.
const matchCacheSize = 256

// SeedEntry is one staff member in a seed file. PIN is clear text here and
// hashed before the directory is saved.
type SeedEntry struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Position  string `json:"position"`
	LoginID   string `json:"loginId"`
	PIN       string `json:"pin"`
	ImportKey string `json:"importKey"`
	Status    string `json:"status"`
}

// DefaultSeed is used when no seed file exists on first run.
var DefaultSeed = []SeedEntry{
	{Name: "BALAJ ANSARI", Contact: "0315 2753537", Position: "ADMIN", LoginID: "BALAJ", PIN: "123", ImportKey: "BALAJ ANSARI"},
	{Name: "SA-DEV-ROOT", Contact: "DEV-SYSTEM-786", Position: "DEVELOPER", LoginID: "DEV", PIN: "786", ImportKey: "DEV"},
}

// Options configures a Directory.
type Options struct {
	// Key the directory is saved under. Defaults to DefaultKey.
	Key string

	// SeedFile is a JSON-with-comments list of SeedEntry read on first run.
	// Missing file means DefaultSeed.
	SeedFile string

	// HashCost is the bcrypt cost for new PINs. Defaults to bcrypt.DefaultCost.
	HashCost int
}

// Directory is the staff list bound to a store.
type Directory struct {
	store   storage.Store
	key     string
	cost    int
	staff   []Staff
	matches *lru.Cache[string, complaint.Assignee]
}

// OpenDirectory loads the staff directory, seeding it on first run.
//
// Flow:
//  1. Load Options.Key from the store
//  2. If absent, read the seed file (or DefaultSeed), hash PINs, save
//
// Returns:
//   - *Directory: Loaded directory
//   - error: StoreError on store failure, plain error on a bad seed file
func OpenDirectory(store storage.Store, opts Options) (*Directory, error) {
	d := &Directory{store: store, key: opts.Key, cost: opts.HashCost}
	if d.key == "" {
		d.key = DefaultKey
	}
	if d.cost == 0 {
		d.cost = bcrypt.DefaultCost
	}

	cache, err := lru.New[string, complaint.Assignee](matchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create match cache: %w", err)
	}
	d.matches = cache

	data, ok, err := store.Load(d.key)
	if err != nil {
		return nil, errors.NewStoreError("load", d.key, err)
	}
	if ok {
		if err := json.Unmarshal(data, &d.staff); err != nil {
			return nil, errors.NewStoreError("load", d.key, err)
		}
		return d, nil
	}

	seed, err := readSeed(opts.SeedFile)
	if err != nil {
		return nil, err
	}
	for _, e := range seed {
		if _, err := d.add(e); err != nil {
			return nil, err
		}
	}
	if err := d.save(); err != nil {
		return nil, err
	}
	log.Printf("📋 Seeded staff directory with %d members", len(d.staff))
	return d, nil
}

// readSeed parses a seed file. A missing path or file gives DefaultSeed.
func readSeed(path string) ([]SeedEntry, error) {
	if path == "" {
		return DefaultSeed, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("⚠️  Staff seed %s not found, using built-in accounts", path)
		return DefaultSeed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read staff seed: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid staff seed %s: %w", path, err)
	}
	var seed []SeedEntry
	if err := json.Unmarshal(standardized, &seed); err != nil {
		return nil, fmt.Errorf("invalid staff seed %s: %w", path, err)
	}
	return seed, nil
}

// Staff returns a copy of every directory entry.
func (d *Directory) Staff() []Staff {
	return slices.Clone(d.staff)
}

// Technicians returns the active technicians.
func (d *Directory) Technicians() []Staff {
	var out []Staff
	for _, s := range d.staff {
		if s.Position == RoleTechnician && s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a staff member by login ID (case-insensitive).
func (d *Directory) Lookup(loginID string) (Staff, bool) {
	id := strings.ToUpper(strings.TrimSpace(loginID))
	i := slices.IndexFunc(d.staff, func(s Staff) bool {
		return strings.ToUpper(s.LoginID) == id
	})
	if i < 0 {
		return Staff{}, false
	}
	return d.staff[i], true
}

// Authenticate logs a staff member in.
//
// Technicians need only their login ID. Admins and developers must give a
// PIN matching the stored hash. Inactive staff are always rejected.
func (d *Directory) Authenticate(loginID, pin string) (Session, error) {
	s, ok := d.Lookup(loginID)
	if !ok {
		return Session{}, errors.NewAuthFailedError(loginID, "unknown login ID")
	}
	if !s.Active() {
		return Session{}, errors.NewAuthFailedError(loginID, "account is inactive")
	}
	if s.Position != RoleTechnician {
		if pin == "" || bcrypt.CompareHashAndPassword([]byte(s.PinHash), []byte(pin)) != nil {
			return Session{}, errors.NewAuthFailedError(loginID, "wrong PIN")
		}
	}
	return Session{Staff: s}, nil
}

// Add registers a new staff member and saves the directory.
// Login IDs must be unique.
func (d *Directory) Add(e SeedEntry) (Staff, error) {
	s, err := d.add(e)
	if err != nil {
		return Staff{}, err
	}
	if err := d.save(); err != nil {
		d.staff = d.staff[:len(d.staff)-1]
		return Staff{}, err
	}
	return s, nil
}

// MatchTechnician resolves a technician name from an imported sheet to the
// directory spelling. Empty, "---" and "UNASSIGNED" give Unassigned.
func (d *Directory) MatchTechnician(input string) complaint.Assignee {
	if a, ok := d.matches.Get(input); ok {
		return a
	}
	a := matchTechnician(d.staff, input)
	d.matches.Add(input, a)
	return a
}

func (d *Directory) add(e SeedEntry) (Staff, error) {
	s := Staff{
		ID:        uuid.NewString(),
		Name:      strings.ToUpper(strings.TrimSpace(e.Name)),
		Contact:   strings.TrimSpace(e.Contact),
		Position:  ParseRole(e.Position),
		LoginID:   strings.ToUpper(strings.TrimSpace(e.LoginID)),
		ImportKey: strings.ToUpper(strings.TrimSpace(e.ImportKey)),
		Status:    "ACTIVE",
	}
	if strings.EqualFold(e.Status, "INACTIVE") {
		s.Status = "INACTIVE"
	}
	if s.Name == "" || s.LoginID == "" {
		return Staff{}, fmt.Errorf("staff entry needs a name and a login ID")
	}
	if s.ImportKey == "" {
		s.ImportKey = s.Name
	}
	if _, taken := d.Lookup(s.LoginID); taken {
		return Staff{}, fmt.Errorf("login ID %q is already taken", s.LoginID)
	}

	if e.PIN != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.PIN), d.cost)
		if err != nil {
			return Staff{}, fmt.Errorf("hash PIN for %s: %w", s.LoginID, err)
		}
		s.PinHash = string(hash)
	} else if s.Position != RoleTechnician {
		return Staff{}, fmt.Errorf("%s %s needs a PIN", s.Position, s.LoginID)
	}

	d.staff = append(d.staff, s)
	d.matches.Purge()
	return s, nil
}

func (d *Directory) save() error {
	data, err := json.MarshalIndent(d.staff, "", "  ")
	if err != nil {
		return errors.NewStoreError("save", d.key, err)
	}
	if err := d.store.Save(d.key, data); err != nil {
		return errors.NewStoreError("save", d.key, err)
	}
	return nil
}
