// Package pdf prints HTML documents to PDF with headless Chrome.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultTimeout = 30 * time.Second

// ErrEmptyDocument is returned when there is nothing to print.
var ErrEmptyDocument = errors.New("empty document")

// Printer converts HTML to PDF. With a remote URL it attaches to a running
// Chrome (ws:// or http:// DevTools endpoint); otherwise it launches a local
// headless browser for each print.
type Printer struct {
	remoteURL string
	execPath  string
	timeout   time.Duration
}

// Option configures a Printer.
type Option func(*Printer)

// WithRemoteURL attaches to an existing Chrome DevTools endpoint.
func WithRemoteURL(url string) Option {
	return func(p *Printer) { p.remoteURL = url }
}

// WithExecPath sets the Chrome binary used for local printing.
func WithExecPath(path string) Option {
	return func(p *Printer) { p.execPath = path }
}

// WithTimeout bounds a single print.
func WithTimeout(d time.Duration) Option {
	return func(p *Printer) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPrinter creates a printer.
func NewPrinter(opts ...Option) *Printer {
	p := &Printer{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.execPath != "" {
		opts = append(opts, chromedp.ExecPath(p.execPath))
	}
	return opts
}

// Print renders html as an A4 PDF with backgrounds.
func (p *Printer) Print(ctx context.Context, html []byte) ([]byte, error) {
	if len(html) == 0 {
		return nil, ErrEmptyDocument
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if p.remoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, p.remoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	}
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelTab()

	var out []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			out, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return out, nil
}
