package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"servicedesk/internal/aggregate"
	"servicedesk/internal/complaint"
	"servicedesk/internal/filter"

	flag "github.com/spf13/pflag"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// filterFlags are shared by list, stats and export-csv.
type filterFlags struct {
	search   *string
	statuses *[]string
	techs    *[]string
	from     *string
	to       *string
	preset   *string
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		search:   fs.StringP("search", "s", "", "Match customer, complaint no., phone or model"),
		statuses: fs.StringSlice("status", nil, "Only these statuses (repeatable)"),
		techs:    fs.StringSlice("tech", nil, "Only these technicians (repeatable)"),
		from:     fs.String("from", "", "Registered on or after this date"),
		to:       fs.String("to", "", "Registered on or before this date"),
		preset:   fs.String("preset", "", "Date preset: today, yesterday, week, all"),
	}
}

// config turns the flags into a filter. Explicit --from/--to win over
// --preset and must be given together; both ends go through the date
// normalizer. --tech names resolve through the staff directory, the same
// way add and update store them.
func (f filterFlags) config(e *env) (filter.Config, error) {
	rng, ok := filter.Preset(e.norm, *f.preset)
	if !ok {
		return filter.Config{}, fmt.Errorf("unknown preset %q", *f.preset)
	}
	if *f.from != "" || *f.to != "" {
		if *f.from == "" || *f.to == "" {
			return filter.Config{}, fmt.Errorf("--from and --to must be given together")
		}
		start, err := f.bound(e, "--from", *f.from)
		if err != nil {
			return filter.Config{}, err
		}
		end, err := f.bound(e, "--to", *f.to)
		if err != nil {
			return filter.Config{}, err
		}
		rng = filter.DateRange{Start: start, End: end, Label: "CUSTOM"}
	}

	cfg := filter.Config{Search: *f.search, Range: rng}
	for _, s := range *f.statuses {
		cfg.Statuses = append(cfg.Statuses, complaint.ParseStatus(s))
	}
	for _, t := range *f.techs {
		cfg.Assignees = append(cfg.Assignees, e.dir.MatchTechnician(t))
	}
	return cfg, nil
}

// bound normalizes one end of a custom range. Normalize hands back input it
// cannot read, so the result must parse as a canonical date.
func (f filterFlags) bound(e *env, flagName, value string) (string, error) {
	canonical := e.norm.Normalize(value, false)
	if _, ok := e.norm.ParseCanonical(canonical); !ok {
		return "", fmt.Errorf("%s %q is not a date", flagName, value)
	}
	return canonical, nil
}

func listCmd() *Command {
	flags := newFlags("list")
	ff := addFilterFlags(flags)
	page := flags.Int("page", 1, "Page number")
	asJSON := flags.Bool("json", false, "Print the page as JSON")

	return &Command{
		Flags: flags,
		Usage: "list [flags]",
		Short: "List complaints, newest first",
		Long: "List complaints with search, status, technician and date filters.\n" +
			"Technicians only see their own jobs.",
		Exec: func(_ context.Context, e *env, _ []string) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			records, err := e.visible(s)
			if err != nil {
				return err
			}
			cfg, err := ff.config(e)
			if err != nil {
				return err
			}

			matched := filter.Apply(e.norm, records, cfg)
			size := e.cfg.PageSize
			p := filter.ClampPage(*page, len(matched), size)
			rows := filter.Paginate(matched, size, p)

			if *asJSON {
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			w := newTable(e.out)
			fmt.Fprintln(w, "ID\tREG DATE\tCOMPLAINT NO\tCUSTOMER\tPHONE\tMODEL\tTECH\tSTATUS\tAGING")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					r.ID, r.RegistrationDate, r.ComplaintNo, r.CustomerName, r.PhoneNo,
					r.Model, r.Assignee, r.Status, r.Aging)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			e.printf("page %d/%d, %d matching of %d\n", p, max(1, filter.PageCount(len(matched), size)), len(matched), len(records))
			return nil
		},
	}
}

func showCmd() *Command {
	return &Command{
		Flags: newFlags("show"),
		Usage: "show <id>",
		Short: "Show one complaint in full",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("show needs exactly one complaint ID")
			}
			s, err := e.session()
			if err != nil {
				return err
			}
			r, err := e.record(s, args[0])
			if err != nil {
				return err
			}
			printRecord(e.out, r)
			return nil
		},
	}
}

func printRecord(out io.Writer, r complaint.Record) {
	w := newTable(out)
	rows := [][2]string{
		{"ID", r.ID},
		{"Complaint No", r.ComplaintNo},
		{"Work Order", r.WorkOrder},
		{"Status", aggregate.ActionLabel(r.Status) + " (" + r.Status.String() + ")"},
		{"Technician", r.Assignee.String()},
		{"Priority", r.Priority},
		{"Registered", r.RegistrationDate},
		{"Updated", r.LastUpdateDate},
		{"Aging", fmt.Sprintf("%d days", r.Aging)},
		{"Customer", r.CustomerName},
		{"Phone", r.PhoneNo},
		{"Address", r.Address},
		{"Product", r.Product},
		{"Model", r.Model},
		{"Serial No", r.SerialNo},
		{"Purchased", r.PurchaseDate},
		{"Problem", r.ProblemDescription},
		{"Charges", fmt.Sprintf("visit %d, parts %d, other %d, total %d", r.VisitCharges, r.PartsCharges, r.OtherCharges, r.TotalCharges())},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
	}
	w.Flush()
	if r.Remarks != "" {
		fmt.Fprintf(out, "Remarks:\n%s\n", r.Remarks)
	}
}

func addCmd() *Command {
	flags := newFlags("add")
	customer := flags.String("customer", "", "Customer name (required)")
	phone := flags.String("phone", "", "Phone number")
	address := flags.String("address", "", "Address")
	model := flags.String("model", "", "Unit model")
	serial := flags.String("serial", "", "Serial number")
	problem := flags.String("problem", "", "Problem description")
	complaintNo := flags.String("complaint-no", "", "Complaint number")
	workOrder := flags.String("work-order", "", "Work order")
	priority := flags.String("priority", "", "Priority (default NORMAL)")
	dop := flags.String("dop", "", "Date of purchase")
	tech := flags.String("tech", "", "Assign to technician")

	return &Command{
		Flags: flags,
		Usage: "add --customer NAME [flags]",
		Short: "Register a new complaint",
		Exec: func(_ context.Context, e *env, _ []string) error {
			if _, err := e.require("register complaints"); err != nil {
				return err
			}
			if *customer == "" {
				return fmt.Errorf("--customer is required")
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}

			r, err := book.Create(complaint.Record{
				CustomerName:       *customer,
				PhoneNo:            *phone,
				Address:            *address,
				Model:              *model,
				SerialNo:           *serial,
				ProblemDescription: *problem,
				ComplaintNo:        *complaintNo,
				WorkOrder:          *workOrder,
				Priority:           *priority,
				PurchaseDate:       *dop,
				Assignee:           e.dir.MatchTechnician(*tech),
			})
			if err != nil {
				return err
			}
			e.printf("✓ Registered %s for %s\n", r.ID, r.CustomerName)
			return nil
		},
	}
}

func updateCmd() *Command {
	flags := newFlags("update")
	status := flags.String("status", "", "New status")
	tech := flags.String("tech", "", "Reassign to technician")
	remarks := flags.String("remarks", "", "Replace remarks")
	customer := flags.String("customer", "", "Customer name")
	phone := flags.String("phone", "", "Phone number")
	address := flags.String("address", "", "Address")
	model := flags.String("model", "", "Unit model")
	serial := flags.String("serial", "", "Serial number")
	dop := flags.String("dop", "", "Date of purchase")
	visit := flags.Int("visit", 0, "Visit charges")
	parts := flags.Int("parts", 0, "Parts charges")
	other := flags.Int("other", 0, "Other charges")

	return &Command{
		Flags: flags,
		Usage: "update <id> [flags]",
		Short: "Change status, technician, remarks, details or charges",
		Long: "Change a complaint. Only the flags given are applied, and the\n" +
			"update date is set to now. Technicians may only set PENDING or\n" +
			"TEMPORARY CLOSED, edit remarks and enter charges on their own jobs.",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("update needs exactly one complaint ID")
			}
			s, err := e.session()
			if err != nil {
				return err
			}
			if _, err := e.record(s, args[0]); err != nil {
				return err
			}

			var p complaint.Patch
			changed := flags.Changed

			if changed("status") {
				st := complaint.ParseStatus(*status)
				if !s.CanSetStatus(st) {
					return fmt.Errorf("%s may not set status %q", s.Staff.Name, st)
				}
				p.Status = &st
			}
			if changed("remarks") {
				p.Remarks = remarks
			}
			if changed("visit") {
				p.VisitCharges = visit
			}
			if changed("parts") {
				p.PartsCharges = parts
			}
			if changed("other") {
				p.OtherCharges = other
			}

			office := []string{"tech", "customer", "phone", "address", "model", "serial", "dop"}
			for _, name := range office {
				if !changed(name) {
					continue
				}
				if err := s.Authorize("edit " + name); err != nil {
					return err
				}
			}
			if changed("tech") {
				a := e.dir.MatchTechnician(*tech)
				p.Assignee = &a
			}
			if changed("customer") {
				p.CustomerName = customer
			}
			if changed("phone") {
				p.PhoneNo = phone
			}
			if changed("address") {
				p.Address = address
			}
			if changed("model") {
				p.Model = model
			}
			if changed("serial") {
				p.SerialNo = serial
			}
			if changed("dop") {
				p.PurchaseDate = dop
			}

			if p.Empty() {
				return fmt.Errorf("nothing to update")
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}
			r, err := book.Update(args[0], p)
			if err != nil {
				return err
			}
			e.printf("✓ Updated %s: %s, %s\n", r.ID, r.Status, r.Assignee)
			return nil
		},
	}
}

func stampCmd() *Command {
	return &Command{
		Flags: newFlags("stamp"),
		Usage: "stamp <id>",
		Short: "Append a timestamped line to the remarks",
		Exec: func(_ context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("stamp needs exactly one complaint ID")
			}
			s, err := e.session()
			if err != nil {
				return err
			}
			if _, err := e.record(s, args[0]); err != nil {
				return err
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}
			r, err := book.Stamp(args[0])
			if err != nil {
				return err
			}
			e.printf("✓ Stamped %s at %s\n", r.ID, r.LastUpdateDate)
			return nil
		},
	}
}
