package render

import (
	"context"
	"time"
)

// PDFOptions controls page printing.
type PDFOptions struct {
	PaperWidth      float64 // inches
	PaperHeight     float64 // inches
	MarginTop       float64
	MarginBottom    float64
	MarginLeft      float64
	MarginRight     float64
	PrintBackground bool
	HeaderTemplate  string
	FooterTemplate  string
}

// Browser is the long-lived headless render process.
type Browser interface {
	// NewPage opens a tab on the shared process.
	NewPage(ctx context.Context) (Page, error)
	// Alive reports whether the process can still open pages.
	Alive() bool
	Close() error
}

// Page is one tab. It must be closed by the caller.
type Page interface {
	// Navigate loads url and waits for network idle within timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error)
	Close() error
}

// Launcher starts a new Browser.
type Launcher func(ctx context.Context) (Browser, error)
