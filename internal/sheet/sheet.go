// Package sheet reads complaint rows from spreadsheet exports and writes the
// collection back out as CSV.
//
// Sheets come from several upstream systems with their own header
// spellings, so every field is looked up through a list of aliases.
package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"servicedesk/internal/complaint"
	"servicedesk/internal/dates"
	"servicedesk/internal/errors"
)

// Field aliases, matched against trimmed upper-case headers. The first
// column whose header is in the list wins.
var (
	aliasWorkOrder   = []string{"WORK ORDER", "WO"}
	aliasPriority    = []string{"PRIORITY"}
	aliasRegDate     = []string{"REG DATE", "DATE"}
	aliasComplaintNo = []string{"COMPLAINT NO", "NO"}
	aliasStatus      = []string{"STATUS"}
	aliasTech        = []string{"TECH NAME", "TECH"}
	aliasUpdateDate  = []string{"UPDATE DATE"}
	aliasRemarks     = []string{"REMARKS"}
	aliasModel       = []string{"MODEL"}
	aliasSerial      = []string{"SERIAL NO", "SERIAL"}
	aliasProblem     = []string{"PROBLEM DESCRIPTION", "PROBLEM"}
	aliasPurchase    = []string{"D.O.P", "DOP"}
	aliasCustomer    = []string{"CUSTOMER NAME", "NAME"}
	aliasPhone       = []string{"PHONE NO", "PHONE"}
	aliasAddress     = []string{"ADDRESS"}
)

// Matcher resolves an imported technician name to a directory name.
type Matcher func(name string) complaint.Assignee

// Importer turns sheet rows into complaint records.
type Importer struct {
	norm  *dates.Normalizer
	match Matcher
}

// NewImporter creates an Importer. A nil match keeps names as written
// (uppercased, with the usual unassigned spellings folded).
func NewImporter(norm *dates.Normalizer, match Matcher) *Importer {
	if match == nil {
		match = complaint.ParseAssignee
	}
	return &Importer{norm: norm, match: match}
}

// Read parses a CSV sheet.
//
// Row handling:
//   - the first row is the header
//   - dates go through Normalize (registration and update with time)
//   - customer name and address are uppercased
//   - rows without a customer name are dropped
//
// Imported records get "IMP-<millis>-<row>" IDs in sheet order. Product is
// left empty for the book to resolve against its catalog.
//
// Returns:
//   - []complaint.Record: Parsed rows, in sheet order
//   - error: ImportError when the sheet cannot be read at all
func (im *Importer) Read(r io.Reader) ([]complaint.Record, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewImportError("sheet is empty", nil)
	}
	if err != nil {
		return nil, errors.NewImportError("cannot read header", err)
	}
	cols := newColumns(header)
	if !cols.has(aliasCustomer) {
		return nil, errors.NewImportError("no CUSTOMER NAME column", nil)
	}

	stamp := im.norm.Clock().UnixMilli()
	var records []complaint.Record
	skipped := 0

	for idx := 0; ; idx++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewImportError(fmt.Sprintf("row %d", idx+2), err)
		}

		rec := im.record(cols, row)
		if rec.CustomerName == "" || rec.CustomerName == "UNDEFINED" {
			skipped++
			continue
		}
		rec.ID = fmt.Sprintf("IMP-%d-%d", stamp, idx)
		records = append(records, rec)
	}

	log.Printf("📋 Read %d rows from sheet (%d without customer skipped)", len(records), skipped)
	return records, nil
}

func (im *Importer) record(cols columns, row []string) complaint.Record {
	get := func(aliases []string) string { return cols.get(row, aliases) }

	model := get(aliasModel)
	priority := get(aliasPriority)
	if priority == "" {
		priority = "NORMAL"
	}

	rec := complaint.Record{
		WorkOrder:          get(aliasWorkOrder),
		Priority:           priority,
		RegistrationDate:   im.norm.Normalize(get(aliasRegDate), true),
		ComplaintNo:        get(aliasComplaintNo),
		Status:             complaint.ParseStatus(get(aliasStatus)),
		Assignee:           im.match(get(aliasTech)),
		LastUpdateDate:     im.norm.Normalize(get(aliasUpdateDate), true),
		Remarks:            get(aliasRemarks),
		Model:              model,
		SerialNo:           get(aliasSerial),
		ProblemDescription: get(aliasProblem),
		PurchaseDate:       im.norm.Normalize(get(aliasPurchase), false),
		CustomerName:       strings.ToUpper(get(aliasCustomer)),
		PhoneNo:            get(aliasPhone),
		Address:            strings.ToUpper(get(aliasAddress)),
	}
	rec.Aging = im.norm.Aging(rec.RegistrationDate)
	return rec
}

// columns maps normalized header names to their first column index.
type columns map[string]int

func newColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) index(aliases []string) (int, bool) {
	best, found := 0, false
	for _, a := range aliases {
		if i, ok := c[a]; ok && (!found || i < best) {
			best, found = i, true
		}
	}
	return best, found
}

func (c columns) has(aliases []string) bool {
	_, ok := c.index(aliases)
	return ok
}

func (c columns) get(row []string, aliases []string) string {
	i, ok := c.index(aliases)
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// exportHeader is the column order of Write. It reuses the import
// spellings so an exported sheet imports cleanly.
var exportHeader = []string{
	"ID", "WORK ORDER", "PRODUCT", "PRIORITY", "REG DATE", "COMPLAINT NO",
	"STATUS", "TECH NAME", "UPDATE DATE", "AGING", "REMARKS", "MODEL",
	"SERIAL NO", "PROBLEM DESCRIPTION", "D.O.P", "CUSTOMER NAME", "PHONE NO",
	"ADDRESS", "VISIT CHARGES", "PARTS CHARGES", "OTHER CHARGES", "TOTAL",
}

// Write writes records as CSV with a header row.
func Write(w io.Writer, records []complaint.Record) error {
	buf := bufio.NewWriter(w)
	writer := csv.NewWriter(buf)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID, r.WorkOrder, r.Product, r.Priority, r.RegistrationDate, r.ComplaintNo,
			string(r.Status), r.Assignee.String(), r.LastUpdateDate, strconv.Itoa(r.Aging), r.Remarks, r.Model,
			r.SerialNo, r.ProblemDescription, r.PurchaseDate, r.CustomerName, r.PhoneNo,
			r.Address, strconv.Itoa(r.VisitCharges), strconv.Itoa(r.PartsCharges), strconv.Itoa(r.OtherCharges), strconv.Itoa(r.TotalCharges()),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
