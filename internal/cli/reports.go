package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"servicedesk/internal/aggregate"
	"servicedesk/internal/browser"
	"servicedesk/internal/complaint"
	"servicedesk/internal/filter"
	"servicedesk/internal/manifest"
	"servicedesk/internal/summary"

	"github.com/natefinch/atomic"
)

func todayCmd() *Command {
	return &Command{
		Flags: newFlags("today"),
		Usage: "today",
		Short: "Show today's activity grouped by technician",
		Exec: func(_ context.Context, e *env, _ []string) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			records, err := e.visible(s)
			if err != nil {
				return err
			}

			a := aggregate.NewView(e.norm).TodayActivity(records)
			e.printf("TODAY'S ACTIVITY, %s\n", a.DateLabel)
			if a.Total == 0 {
				e.println("No activity today.")
				return nil
			}

			w := newTable(e.out)
			for _, g := range a.Groups {
				fmt.Fprintf(w, "\n%s (%d)\t\t\t\t\n", g.Assignee, len(g.Records))
				for _, r := range g.Records {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
						aggregate.TimeOnly(r.LastActivity()), r.ComplaintNo, r.CustomerName, r.Model, aggregate.ActionLabel(r.Status))
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			e.printf("\n%d jobs, %d active personnel\n", a.Total, a.ActivePersonnel)
			return nil
		},
	}
}

func statsCmd() *Command {
	flags := newFlags("stats")
	ff := addFilterFlags(flags)

	return &Command{
		Flags: flags,
		Usage: "stats [filter flags]",
		Short: "Completion, revenue and top products",
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
			records = filter.Apply(e.norm, records, cfg)

			sum := aggregate.Summarize(records)
			e.printf("Total:      %d\n", sum.Total)
			e.printf("Completed:  %d\n", sum.Completed)
			e.printf("Pending:    %d\n", sum.Pending)
			e.printf("Completion: %d%%\n", sum.CompletionPercent())
			e.printf("Revenue:    PKR %d\n", sum.Revenue)

			top := aggregate.TopProducts(records, 5)
			if len(top) > 0 {
				e.println()
				e.println("Top products:")
				for _, p := range top {
					e.printf("  %-24s %d\n", p.Product, p.Count)
				}
			}

			if !s.IsTechnician() {
				e.println()
				e.println("By technician:")
				for _, g := range aggregate.GroupByAssignee(records) {
					gs := aggregate.Summarize(g.Records)
					e.printf("  %-24s %d jobs, %d%% done\n", g.Assignee, gs.Total, gs.CompletionPercent())
				}
			}
			return nil
		},
	}
}

// report renders today's board into OUTPUT_DIR and optionally posts it.
//
// Returns:
//   - aggregate.Activity: What was rendered
//   - string: PNG path ("" when there was no activity)
//   - error: Render, write or send error
func (e *env) report(ctx context.Context, records []complaint.Record, send bool) (aggregate.Activity, string, error) {
	a := aggregate.NewView(e.norm).TodayActivity(records)
	if a.Total == 0 {
		return a, "", nil
	}

	png, err := summary.RenderActivity(a)
	if err != nil {
		return a, "", err
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return a, "", fmt.Errorf("create output directory: %w", err)
	}
	name := "ACTIVITY_" + e.norm.Today() + ".png"
	path := filepath.Join(e.cfg.OutputDir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(png)); err != nil {
		return a, "", fmt.Errorf("write %s: %w", path, err)
	}

	if send {
		if _, err := e.telegram().SendPhoto(ctx, png, name, summary.Caption(a)); err != nil {
			return a, path, err
		}
	}
	return a, path, nil
}

func reportCmd() *Command {
	flags := newFlags("report")
	send := flags.Bool("send", false, "Post the board to Telegram")

	return &Command{
		Flags: flags,
		Usage: "report [--send]",
		Short: "Render today's activity board as PNG",
		Exec: func(ctx context.Context, e *env, _ []string) error {
			if _, err := e.require("publish reports"); err != nil {
				return err
			}
			book, err := e.openBook()
			if err != nil {
				return err
			}

			a, path, err := e.report(ctx, book.Records(), *send)
			if err != nil {
				return err
			}
			if path == "" {
				e.println("No activity today, nothing to render.")
				return nil
			}
			e.printf("✓ Rendered %d jobs to %s\n", a.Total, path)
			if *send {
				e.println("✓ Sent to Telegram")
			}
			return nil
		},
	}
}

func manifestCmd() *Command {
	flags := newFlags("manifest")
	today := flags.Bool("today", false, "Print every job active today")
	out := flags.StringP("output", "o", "", "Output directory (default OUTPUT_DIR)")

	return &Command{
		Flags: flags,
		Usage: "manifest <id>... | --today",
		Short: "Print job manifests to PDF",
		Long: "Render the job manifest of each complaint and print it to PDF with\n" +
			"headless Chrome, WORKER_POOL_SIZE at a time.",
		Exec: func(ctx context.Context, e *env, args []string) error {
			s, err := e.session()
			if err != nil {
				return err
			}

			var records []complaint.Record
			if *today {
				all, err := e.visible(s)
				if err != nil {
					return err
				}
				view := aggregate.NewView(e.norm)
				for _, r := range all {
					if view.IsToday(r) {
						records = append(records, r)
					}
				}
			}
			for _, id := range args {
				r, err := e.record(s, id)
				if err != nil {
					return err
				}
				records = append(records, r)
			}
			if len(records) == 0 {
				return fmt.Errorf("no complaints to print")
			}

			dir := *out
			if dir == "" {
				dir = e.cfg.OutputDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			printer := e.app.Printer
			if printer == nil {
				browserCtx, cancel := browser.NewContext(ctx, e.cfg.ChromeHeadless)
				defer cancel()
				chrome := manifest.NewChromePrinter(browserCtx, e.cfg.PDFTimeout)
				if err := chrome.Start(); err != nil {
					return err
				}
				printer = chrome
			}

			results := manifest.PrintAll(ctx, printer, dir, e.cfg.WorkerPoolSize, records)
			var failed []string
			for _, res := range results {
				if res.Error != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", res.ID, res.Error))
					continue
				}
				e.printf("✓ %s\n", res.Path)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d manifests failed:\n  %s", len(failed), len(results), strings.Join(failed, "\n  "))
			}
			return nil
		},
	}
}
