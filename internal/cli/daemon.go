package cli

import (
	"context"
	"log"
	"time"

	"servicedesk/internal/complaint"
	"servicedesk/internal/health"

	"golang.org/x/sync/errgroup"
)

// maxReportFailures is how many failed cycles in a row trigger a critical
// Telegram alert.
const maxReportFailures = 3

func daemonCmd() *Command {
	flags := newFlags("daemon")
	once := flags.Bool("once", false, "Run one report cycle and exit")

	return &Command{
		Flags: flags,
		Usage: "daemon [--once]",
		Short: "Post the activity board every REPORT_INTERVAL",
		Long: "Run the reporting daemon. Every REPORT_INTERVAL it reloads the\n" +
			"complaint store, renders today's activity board and posts it to\n" +
			"Telegram. A health server on HEALTH_CHECK_PORT serves /health and\n" +
			"/metrics while it runs.",
		Exec: func(ctx context.Context, e *env, _ []string) error {
			monitor := health.NewMonitor()
			e.observer = monitor

			book, err := e.openBook()
			if err != nil {
				return err
			}
			monitor.SetRecords(book.Len())

			if *once {
				err := e.reportCycle(ctx, book, monitor)
				monitor.UpdateReportStatus(err)
				return err
			}

			log.Println("🚀 Starting service desk daemon...")
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return <-health.StartServer(gctx, monitor, e.cfg.HealthCheckPort)
			})
			g.Go(func() error {
				e.reportLoop(gctx, book, monitor)
				return nil
			})
			return g.Wait()
		},
	}
}

// reportCycle reloads the store and posts today's board.
func (e *env) reportCycle(ctx context.Context, book *complaint.Book, monitor *health.Monitor) error {
	log.Println("📬 Building activity report...")
	log.Println("⏰ Time:", e.norm.Now(true))

	if err := book.Reload(); err != nil {
		return err
	}
	monitor.SetRecords(book.Len())

	a, path, err := e.report(ctx, book.Records(), true)
	if err != nil {
		return err
	}
	if path == "" {
		log.Println("✓ No activity today, nothing to post")
		return nil
	}
	log.Printf("✓ Posted %d jobs for %d personnel (%s)", a.Total, a.ActivePersonnel, path)
	return nil
}

// reportLoop runs a cycle now and then on every tick until ctx is done.
// Failures are counted; after maxReportFailures in a row a critical alert
// goes out, and again on every further failure.
func (e *env) reportLoop(ctx context.Context, book *complaint.Book, monitor *health.Monitor) {
	failures := 0
	cycle := func() {
		err := e.reportCycle(ctx, book, monitor)
		monitor.UpdateReportStatus(err)
		if err == nil {
			failures = 0
			return
		}

		failures++
		log.Printf("⚠️  Report cycle failed (%d in a row): %v", failures, err)
		if failures >= maxReportFailures {
			if alertErr := e.telegram().SendCriticalAlert(ctx, "Report Failure", err.Error(), failures); alertErr != nil {
				log.Printf("⚠️  %v", alertErr)
			}
		}
	}

	cycle()
	log.Printf("⏰ Next report every %v", e.cfg.ReportInterval)
	log.Println("═══════════════════════════════════════════════════════════")

	ticker := time.NewTicker(e.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("✓ Daemon stopped")
			return
		case <-ticker.C:
			cycle()
			log.Println("═══════════════════════════════════════════════════════════")
		}
	}
}
