package complaint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"servicedesk/internal/dates"
)

// Migrate decodes a stored collection of any revision into current records.
//
// Older revisions stored whatever the UI happened to hold: keys may be
// missing, charges may be strings or floats, dates may still be spreadsheet
// serials or locale strings. Migrate is pure: it never touches a store.
//
// Conversion rules:
//   - missing text fields become ""
//   - status labels go through ParseStatus, technician names through ParseAssignee
//   - charges are coerced to non-negative integers (default 0)
//   - dates go through Normalize (with time for registration/update, date-only for purchase)
//   - aging is recomputed against the normalizer's clock
//   - a missing product stays empty; Book resolves it against its catalog
//
// Returns:
//   - []Record: Records in stored order
//   - error: Only when data is not a JSON array of objects
func Migrate(data []byte, norm *dates.Normalizer) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode complaint collection: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for _, m := range raw {
		records = append(records, FromRaw(m, norm))
	}
	return records, nil
}

// FromRaw builds a Record out of one loosely typed row.
func FromRaw(m map[string]any, norm *dates.Normalizer) Record {
	r := Record{
		ID:                 text(m["id"]),
		WorkOrder:          text(m["workOrder"]),
		Priority:           text(m["priority"]),
		ComplaintNo:        text(m["complaintNo"]),
		Status:             ParseStatus(text(m["status"])),
		Assignee:           ParseAssignee(text(m["techName"])),
		Remarks:            text(m["remarks"]),
		Model:              text(m["model"]),
		SerialNo:           text(m["serialNo"]),
		ProblemDescription: text(m["problemDescription"]),
		CustomerName:       text(m["customerName"]),
		PhoneNo:            text(m["phoneNo"]),
		Address:            text(m["address"]),
		VisitCharges:       charge(m["visitCharges"]),
		PartsCharges:       charge(m["partsCharges"]),
		OtherCharges:       charge(m["otherCharges"]),
		RegistrationDate:   norm.Normalize(m["regDate"], true),
		LastUpdateDate:     norm.Normalize(m["updateDate"], true),
		PurchaseDate:       norm.Normalize(m["dop"], false),
	}

	if r.Priority == "" {
		r.Priority = "NORMAL"
	}

	r.Product = text(m["product"])

	r.Aging = norm.Aging(r.RegistrationDate)
	return r
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func charge(v any) int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	return int(f)
}
