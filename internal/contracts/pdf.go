package contracts

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Printer converts an HTML document to PDF.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePrinter prints through a headless Chrome/Chromium, which must be
// installed on the host.
type ChromePrinter struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewChromePrinter returns a printer that gives up after timeout.
func NewChromePrinter(timeout time.Duration, l *zap.Logger) *ChromePrinter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &ChromePrinter{Timeout: timeout, Logger: l.Named("contracts.pdf")}
}

// PrintPDF loads html into a blank page and prints it on A4 paper.
func (p *ChromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, p.Timeout)
	defer cancel()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, &RenderError{Message: "headless chrome failed to print contract", Cause: err}
	}

	p.Logger.Debug("contract printed",
		zap.Int("bytes", len(pdf)),
		zap.Duration("took", time.Since(start)))
	return pdf, nil
}
