// Package manifest produces the printable job sheet for a complaint: an A4
// HTML page with the customer, the unit, the field log and the charges,
// which can be printed to PDF through headless Chrome.
package manifest

import (
	"bytes"
	"html/template"
	"io"
	"path/filepath"
	"regexp"

	"servicedesk/internal/complaint"
	"servicedesk/internal/errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const emptyLog = "Fresh system log."

var amounts = message.NewPrinter(language.English)

var sheet = template.Must(template.New("manifest").Funcs(template.FuncMap{
	"pkr": func(v int) string { return amounts.Sprintf("%d", v) },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>SA_MANIFEST_{{.ComplaintNo}}</title><style>
@page { size: A4; margin: 15mm; }
body { font-family: 'Plus Jakarta Sans', sans-serif; color: #0f172a; line-height: 1.5; margin: 0; font-size: 11px; }
.header { border-bottom: 6px solid #2563eb; padding-bottom: 15px; margin-bottom: 25px; display: flex; justify-content: space-between; align-items: flex-end; }
.box { border: 2px solid #f1f5f9; padding: 20px; border-radius: 15px; margin-bottom: 20px; }
.label { font-size: 8px; font-weight: 900; color: #94a3b8; text-transform: uppercase; margin-bottom: 3px; }
.value { font-size: 13px; font-weight: 800; margin-bottom: 10px; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 20px; }
.remarks { background: #f8fafc; padding: 25px; border-radius: 20px; border: 1px solid #e2e8f0; font-size: 12px; white-space: pre-wrap; min-height: 150px; }
.total { background: #0f172a; color: #fff; padding: 25px; border-radius: 20px; display: flex; justify-content: space-between; align-items: center; margin-top: 20px; }
.policy { font-size: 9px; color: #64748b; margin-top: 40px; border-top: 2px dashed #e2e8f0; padding-top: 20px; }
</style></head><body>
<div class="header">
  <div><div style="font-size:32px; font-weight:900; color:#2563eb; font-style:italic;">SA</div><div style="font-weight:900; text-transform:uppercase; font-size:18px;">Super Asia Service Desk</div></div>
  <div style="text-align:right; font-size:12px; font-weight:bold; color:#64748b;">MANIFEST ID: #{{.ComplaintNo}}<br>ORDER REF: {{.WorkOrder}}<br>REG DATE: {{.RegistrationDate}}</div>
</div>
<div class="box"><div class="label">Customer Profile</div>
  <div class="label">Full Name &amp; Contact</div><div class="value">{{.CustomerName}} | {{.PhoneNo}}</div>
  <div class="label">Primary Service Address</div><div class="value">{{.Address}}</div>
</div>
<div class="box"><div class="label">Hardware Deployment Details</div><div class="grid">
  <div><div class="label">Model Identity</div><div class="value">{{.Model}}</div></div>
  <div><div class="label">Category</div><div class="value">{{.Product}}</div></div>
  <div><div class="label">Purchase Date (DOP)</div><div class="value">{{.PurchaseDate}}</div></div>
  <div><div class="label">Assigned Technician</div><div class="value">{{.Assignee}}</div></div>
</div></div>
<div class="box"><div class="label">Field Action Log History</div><div class="remarks">{{.Log}}</div></div>
<div class="total">
  <div><div class="label">Final Operation Status</div><div class="value" style="font-size:16px;">{{.Status}}</div></div>
  <div style="text-align:right"><div class="label">Manifest Settlement</div>
    <div style="font-size:26px; font-weight:900; color:#10b981;">PKR {{pkr .Total}}/-</div>
    <div style="font-size:9px; opacity:0.5; font-weight:bold;">(Visit: {{.VisitCharges}}, Parts: {{.PartsCharges}}, Other: {{.OtherCharges}})</div>
  </div>
</div>
<div class="policy">
  <h4 style="margin:0 0 10px 0; text-transform:uppercase; color:#0f172a;">Service Protocol</h4>
  <ul style="padding-left:15px; margin:0;">
    <li>Super Asia provides 1 Year Parts and 2 Years Motor coverage from documented D.O.P.</li>
    <li>Coverage is void if physical damage, voltage fluctuations, or unauthorized tampering is detected.</li>
  </ul>
</div>
</body></html>
`))

// view is the template data: the record plus derived fields.
type view struct {
	complaint.Record
	Log   string
	Total int
}

// Render writes the job sheet for r as HTML.
func Render(w io.Writer, r complaint.Record) error {
	v := view{Record: r, Log: r.Remarks, Total: r.TotalCharges()}
	if v.Log == "" {
		v.Log = emptyLog
	}
	if err := sheet.Execute(w, v); err != nil {
		return errors.NewRenderError("manifest "+r.ID, err)
	}
	return nil
}

// HTML returns the job sheet for r.
func HTML(r complaint.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is the PDF file name for r, safe to use on any file system.
func FileName(r complaint.Record) string {
	ref := r.ComplaintNo
	if ref == "" {
		ref = r.ID
	}
	return "SA_MANIFEST_" + unsafeName.ReplaceAllString(filepath.Base(ref), "_") + ".pdf"
}
