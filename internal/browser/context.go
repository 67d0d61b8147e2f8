// Package browser manages the headless Chrome instance used to print
// job manifests.
//
// One browser process is started per run and shared; every print job opens
// its own tab on it so jobs can run side by side.
package browser

import (
	"context"
	"log"

	"github.com/chromedp/chromedp"
)

// NewContext starts a Chrome browser and returns its root context.
//
// Browser configuration:
//   - Default chromedp flags
//   - Headless unless headless is false (useful when debugging layouts)
//   - chromedp errors go to the standard logger
//
// Cancelling the returned func shuts the browser down.
//
// Parameters:
//   - parent: Context the browser lives under
//   - headless: Run without a window
//
// Returns:
//   - context.Context: Browser context for chromedp actions
//   - context.CancelFunc: Closes the browser and frees the allocator
func NewContext(parent context.Context, headless bool) (context.Context, context.CancelFunc) {
	log.Println("  → Starting browser...")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.DisableGPU,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithErrorf(log.Printf))

	log.Println("  ✓ Browser context created")
	return ctx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

// NewTab opens a new tab in the browser behind ctx.
func NewTab(ctx context.Context) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(ctx)
}
