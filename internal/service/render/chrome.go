package render

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromeBrowser is a headless Chrome process driven through chromedp.
type chromeBrowser struct {
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// ChromeLauncher returns a Launcher that starts headless Chrome. An empty
// execPath lets chromedp find the binary.
func ChromeLauncher(execPath string) Launcher {
	return func(ctx context.Context) (Browser, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("allow-file-access-from-files", true),
		)
		if execPath != "" {
			opts = append(opts, chromedp.ExecPath(execPath))
		}

		// The process outlives the launching call, so it is not tied to ctx.
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

		started := make(chan error, 1)
		go func() { started <- chromedp.Run(browserCtx) }()

		select {
		case err := <-started:
			if err != nil {
				cancelBrowser()
				cancelAlloc()
				return nil, fmt.Errorf("start chrome: %w", err)
			}
		case <-ctx.Done():
			cancelBrowser()
			cancelAlloc()
			return nil, fmt.Errorf("start chrome: %w", ctx.Err())
		}

		return &chromeBrowser{ctx: browserCtx, cancelAlloc: cancelAlloc, cancelBrowser: cancelBrowser}, nil
	}
}

func (b *chromeBrowser) NewPage(_ context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	// An empty run allocates the tab before any timeout contexts derive from it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromePage{ctx: tabCtx, cancel: cancel}, nil
}

func (b *chromeBrowser) Alive() bool {
	return b.ctx.Err() == nil
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelBrowser()
	b.cancelAlloc()
	return err
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var armed, idleSeen atomic.Bool
	idle := make(chan struct{})
	chromedp.ListenTarget(navCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			armed.Store(true)
		case "networkIdle":
			if armed.Load() && idleSeen.CompareAndSwap(false, true) {
				close(idle)
			}
		}
	})

	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	printCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	err := chromedp.Run(printCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPaperWidth(opts.PaperWidth).
			WithPaperHeight(opts.PaperHeight).
			WithMarginTop(opts.MarginTop).
			WithMarginBottom(opts.MarginBottom).
			WithMarginLeft(opts.MarginLeft).
			WithMarginRight(opts.MarginRight).
			WithPrintBackground(opts.PrintBackground).
			WithDisplayHeaderFooter(opts.HeaderTemplate != "" || opts.FooterTemplate != "").
			WithHeaderTemplate(opts.HeaderTemplate).
			WithFooterTemplate(opts.FooterTemplate).
			Do(ctx)
		buf = data
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return buf, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
