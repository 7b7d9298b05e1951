package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

// ErrClosed is returned once the manager has been shut down.
var ErrClosed = errors.New("render manager closed")

// A4 in inches, margins converted from 40px/20px at 96 dpi.
var defaultPDF = PDFOptions{
	PaperWidth:      8.27,
	PaperHeight:     11.69,
	MarginTop:       40.0 / 96,
	MarginBottom:    40.0 / 96,
	MarginLeft:      20.0 / 96,
	MarginRight:     20.0 / 96,
	PrintBackground: true,
}

// Options configures the manager.
type Options struct {
	DataDir           string
	ReportsDir        string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

// Manager owns the single headless browser used for every PDF. The browser
// is launched on first use and lives until Close; pages are per call.
type Manager struct {
	launch Launcher
	opts   Options
	logger *zap.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	browser Browser
	closed  bool
}

// NewManager wires a manager around a browser launcher.
func NewManager(launch Launcher, opts Options, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	return &Manager{
		launch: launch,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// RenderHTML writes the HTML wrapper around the category's report image.
// It always regenerates the file.
func (m *Manager) RenderHTML(category models.Category) (string, error) {
	set := models.ArtifactsFor(category, m.opts.DataDir, m.opts.ReportsDir)
	if set.HTML == "" {
		return "", fmt.Errorf("category %q has no report", category)
	}

	if _, err := os.Stat(set.Image); err != nil {
		m.logger.Warn("report image missing, html will show a broken image",
			zap.String("category", string(category)),
			zap.String("image", set.Image))
	}

	content, err := buildHTML(string(category), filepath.Base(set.Image), m.now())
	if err != nil {
		return "", fmt.Errorf("build %s html: %w", category, err)
	}
	if err := os.WriteFile(set.HTML, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s html: %w", category, err)
	}

	m.logger.Info("html report generated", zap.String("category", string(category)), zap.String("path", set.HTML))
	return set.HTML, nil
}

// RenderPDF prints the category's HTML report to PDF on a fresh page of the
// shared browser. The page is closed whatever the outcome.
func (m *Manager) RenderPDF(ctx context.Context, category models.Category) (string, error) {
	set := models.ArtifactsFor(category, m.opts.DataDir, m.opts.ReportsDir)
	if set.HTML == "" {
		return "", fmt.Errorf("category %q has no report", category)
	}

	if _, statErr := os.Stat(set.HTML); statErr != nil {
		if _, err := m.RenderHTML(category); err != nil {
			return "", err
		}
	}

	browser, err := m.Browser(ctx)
	if err != nil {
		return "", err
	}

	pg, err := browser.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("open page for %s: %w", category, err)
	}
	defer func() {
		if cerr := pg.Close(); cerr != nil {
			m.logger.Warn("failed to close page", zap.String("category", string(category)), zap.Error(cerr))
		}
	}()

	target, err := fileURL(set.HTML)
	if err != nil {
		return "", err
	}
	m.logger.Info("loading html", zap.String("url", target))

	if err := pg.Navigate(ctx, target, m.opts.NavigationTimeout); err != nil {
		return "", fmt.Errorf("render %s: %w", category, err)
	}
	if err := m.sleep(ctx, m.opts.SettleDelay); err != nil {
		return "", fmt.Errorf("render %s: %w", category, err)
	}

	opts := defaultPDF
	opts.HeaderTemplate = headerTemplate(string(category))
	opts.FooterTemplate = footerTemplate
	data, err := pg.PrintPDF(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", category, err)
	}

	if err := os.WriteFile(set.PDF, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s pdf: %w", category, err)
	}

	m.logger.Info("pdf generated", zap.String("category", string(category)), zap.String("path", set.PDF))
	return set.PDF, nil
}

// Browser returns the shared browser, launching it on first use or when the
// previous process died.
func (m *Manager) Browser(ctx context.Context) (Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.browser != nil && m.browser.Alive() {
		return m.browser, nil
	}
	if m.browser != nil {
		m.logger.Warn("browser process is gone, relaunching")
		_ = m.browser.Close()
		m.browser = nil
	}

	b, err := m.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	m.browser = b
	m.logger.Info("headless browser started")
	return b, nil
}

// Close shuts the shared browser down. It is called once from the process
// shutdown path.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	m.logger.Info("headless browser closed")
	return err
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
