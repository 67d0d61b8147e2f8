package complaint

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"

	"servicedesk/internal/dates"
	"servicedesk/internal/errors"
	"servicedesk/internal/storage"

	"github.com/google/uuid"
)

// DefaultKey is the store key of the current complaint collection.
const DefaultKey = "superasia_v12_enterprise_stable"

// Observer is told about every successful save. The health monitor uses it
// to publish record counts.
type Observer interface {
	Saved(records int)
}

// Options configures a Book.
type Options struct {
	// Key the collection is saved under. Defaults to DefaultKey.
	Key string

	// LegacyKeys are read, in order, when Key holds nothing yet. The first one
	// found is migrated and re-saved under Key.
	LegacyKeys []string

	// Observer is optional.
	Observer Observer

	// Catalog resolves product lines of models. Nil knows only spin dryers.
	Catalog Catalog

	// NewID generates record IDs. Defaults to random UUIDs.
	NewID func() string
}

// Book is the complaint collection of one session.
//
// Data flow:
//
//	Open:     store bytes → Migrate → records (aging recomputed)
//	Mutation: copy records → change copy → save whole copy → swap in
//
// A Book is not safe for concurrent use and offers no locking. Two Books on
// the same store each work on their own copy; whichever saves last
// overwrites the other's changes.
type Book struct {
	store    storage.Store
	norm     *dates.Normalizer
	key      string
	legacy   []string
	observer Observer
	catalog  Catalog
	newID    func() string
	records  []Record
}

// Open loads the collection from store.
//
// Initialization flow:
//  1. Read Options.Key
//  2. If absent, read legacy keys and migrate the first one found
//  3. Normalize dates and recompute aging for every record
//
// Returns:
//   - *Book: Loaded book (empty when the store holds nothing)
//   - error: StoreError when the store fails or holds something unreadable
func Open(store storage.Store, norm *dates.Normalizer, opts Options) (*Book, error) {
	b := &Book{
		store:    store,
		norm:     norm,
		key:      opts.Key,
		legacy:   opts.LegacyKeys,
		observer: opts.Observer,
		catalog:  opts.Catalog,
		newID:    opts.NewID,
	}
	if b.key == "" {
		b.key = DefaultKey
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}

	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload replaces the in-memory collection with what the store holds now.
func (b *Book) Reload() error {
	data, ok, err := b.store.Load(b.key)
	if err != nil {
		return errors.NewStoreError("load", b.key, err)
	}

	if !ok {
		return b.loadLegacy()
	}

	records, err := Migrate(data, b.norm)
	if err != nil {
		return errors.NewStoreError("load", b.key, err)
	}
	b.records = b.resolveProducts(records)
	return nil
}

func (b *Book) loadLegacy() error {
	for _, key := range b.legacy {
		data, ok, err := b.store.Load(key)
		if err != nil {
			return errors.NewStoreError("load", key, err)
		}
		if !ok {
			continue
		}

		records, err := Migrate(data, b.norm)
		if err != nil {
			return errors.NewStoreError("load", key, err)
		}
		records = b.resolveProducts(records)

		log.Printf("📋 Migrating %d complaints from %s to %s", len(records), key, b.key)
		if err := b.commit(records); err != nil {
			return err
		}
		return nil
	}

	b.records = nil
	return nil
}

// Len returns the number of records.
func (b *Book) Len() int {
	return len(b.records)
}

// Records returns a copy of the collection in stored order.
func (b *Book) Records() []Record {
	return slices.Clone(b.records)
}

// Get returns the record with id.
func (b *Book) Get(id string) (Record, error) {
	i := b.index(id)
	if i < 0 {
		return Record{}, errors.NewNotFoundError(id)
	}
	return b.records[i], nil
}

// Create adds a manually entered complaint at the top of the collection.
//
// Defaults applied:
//   - a fresh ID (also when r.ID is already taken)
//   - registration date = now, with time
//   - status PENDING, assignee UNASSIGNED, priority NORMAL
//   - product resolved from the model
func (b *Book) Create(r Record) (Record, error) {
	r = b.prepare(r)
	if r.RegistrationDate == "" {
		r.RegistrationDate = b.norm.Now(true)
	}
	r.Aging = b.norm.Aging(r.RegistrationDate)

	next := make([]Record, 0, len(b.records)+1)
	next = append(next, r)
	next = append(next, b.records...)

	if err := b.commit(next); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Import puts bulk-imported rows on top of the collection, keeping their
// order, and returns how many were added.
func (b *Book) Import(rows []Record) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	next := make([]Record, 0, len(rows)+len(b.records))
	taken := make(map[string]bool, len(rows))
	for _, r := range rows {
		r = b.prepare(r)
		for taken[r.ID] {
			r.ID = b.newID()
		}
		taken[r.ID] = true
		r.Aging = b.norm.Aging(r.RegistrationDate)
		next = append(next, r)
	}
	next = append(next, b.records...)

	if err := b.commit(next); err != nil {
		return 0, err
	}
	log.Printf("✓ Imported %d complaints", len(rows))
	return len(rows), nil
}

// Update applies p to the record with id and stamps its update date.
func (b *Book) Update(id string, p Patch) (Record, error) {
	i := b.index(id)
	if i < 0 {
		return Record{}, errors.NewNotFoundError(id)
	}

	next := slices.Clone(b.records)
	r := next[i]
	p.apply(&r)
	if r.Product == "" {
		r.Product = b.catalog.Product(r.Model)
	}
	r.PurchaseDate = b.norm.Normalize(r.PurchaseDate, false)
	r.LastUpdateDate = b.norm.Now(true)
	next[i] = r

	if err := b.commit(next); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Stamp appends a "[DD-MM-YYYY HH:MM]: " line to the remarks so the next note
// carries its time.
func (b *Book) Stamp(id string) (Record, error) {
	r, err := b.Get(id)
	if err != nil {
		return Record{}, err
	}

	remarks := fmt.Sprintf("%s\n[%s]: ", r.Remarks, b.norm.Now(true))
	return b.Update(id, Patch{Remarks: &remarks})
}

// Export serializes the whole collection for moving it to another device.
func (b *Book) Export() ([]byte, error) {
	return json.MarshalIndent(b.recordsOrEmpty(), "", "  ")
}

// Restore replaces the whole collection with an export, returning the number
// of records now held. The previous collection is overwritten.
func (b *Book) Restore(data []byte) (int, error) {
	records, err := Migrate(data, b.norm)
	if err != nil {
		return 0, errors.NewImportError("backup is not a complaint collection", err)
	}
	records = b.resolveProducts(records)

	if err := b.commit(records); err != nil {
		return 0, err
	}
	log.Printf("✓ Restored %d complaints from backup", len(records))
	return len(records), nil
}

// Technicians returns the distinct assigned technician names, sorted.
func (b *Book) Technicians() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range b.records {
		if !r.Assignee.Assigned() || seen[string(r.Assignee)] {
			continue
		}
		seen[string(r.Assignee)] = true
		names = append(names, string(r.Assignee))
	}
	slices.Sort(names)
	return names
}

// commit saves next and only then makes it the in-memory collection, so a
// failed save leaves the book as it was.
func (b *Book) commit(next []Record) error {
	if next == nil {
		next = []Record{}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return errors.NewStoreError("save", b.key, err)
	}
	if err := b.store.Save(b.key, data); err != nil {
		return errors.NewStoreError("save", b.key, err)
	}

	b.records = next
	if b.observer != nil {
		b.observer.Saved(len(next))
	}
	return nil
}

func (b *Book) prepare(r Record) Record {
	if r.ID == "" || b.index(r.ID) >= 0 {
		r.ID = b.newID()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Assignee == "" {
		r.Assignee = Unassigned
	}
	if r.Priority == "" {
		r.Priority = "NORMAL"
	}
	if r.Product == "" {
		r.Product = b.catalog.Product(r.Model)
	}
	r.VisitCharges = nonNegative(r.VisitCharges)
	r.PartsCharges = nonNegative(r.PartsCharges)
	r.OtherCharges = nonNegative(r.OtherCharges)

	r.RegistrationDate = b.norm.Normalize(r.RegistrationDate, true)
	r.LastUpdateDate = b.norm.Normalize(r.LastUpdateDate, true)
	r.PurchaseDate = b.norm.Normalize(r.PurchaseDate, false)
	return r
}

// resolveProducts fills in products that were never recorded.
func (b *Book) resolveProducts(records []Record) []Record {
	for i := range records {
		if records[i].Product == "" {
			records[i].Product = b.catalog.Product(records[i].Model)
		}
	}
	return records
}

func (b *Book) index(id string) int {
	return slices.IndexFunc(b.records, func(r Record) bool { return r.ID == id })
}

func (b *Book) recordsOrEmpty() []Record {
	if b.records == nil {
		return []Record{}
	}
	return b.records
}
