package manifest

import (
	"context"
	"fmt"
	"time"

	"servicedesk/internal/browser"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches, as the DevTools protocol wants it.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
)

// Printer turns HTML documents into PDF bytes.
type Printer interface {
	PDF(ctx context.Context, html []byte) ([]byte, error)
}

// ChromePrinter prints through a running headless browser. Each call uses
// its own tab, so one ChromePrinter serves a whole worker pool.
type ChromePrinter struct {
	browser context.Context
	timeout time.Duration
}

// NewChromePrinter creates a printer on the browser behind browserCtx
// (see browser.NewContext). A zero timeout means no per-document limit.
func NewChromePrinter(browserCtx context.Context, timeout time.Duration) *ChromePrinter {
	return &ChromePrinter{browser: browserCtx, timeout: timeout}
}

// Start launches the browser. Tabs opened before the browser runs would
// each start a browser of their own.
func (p *ChromePrinter) Start() error {
	if err := chromedp.Run(p.browser); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	return nil
}

// PDF loads html into a blank tab and prints it.
//
// Flow:
//  1. Open a tab and navigate to about:blank
//  2. Replace the document with html
//  3. Print to PDF with backgrounds on A4 paper
func (p *ChromePrinter) PDF(ctx context.Context, html []byte) ([]byte, error) {
	tab, cancel := browser.NewTab(p.browser)
	defer cancel()

	if p.timeout > 0 {
		var cancelTimeout context.CancelFunc
		tab, cancelTimeout = context.WithTimeout(tab, p.timeout)
		defer cancelTimeout()
	}

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print: %w", err)
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
