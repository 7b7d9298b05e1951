package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fuelsync/internal/domain/models"
)

type fakeBrowser struct {
	mu       sync.Mutex
	alive    bool
	open     int
	maxOpen  int
	pages    int
	closed   bool
	navErr   error
	printErr error
	lastURL  string
	lastOpts PDFOptions
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open++
	b.pages++
	if b.open > b.maxOpen {
		b.maxOpen = b.open
	}
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive && !b.closed
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type fakePage struct {
	browser *fakeBrowser
}

func (p *fakePage) Navigate(_ context.Context, url string, _ time.Duration) error {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.lastURL = url
	return p.browser.navErr
}

func (p *fakePage) PrintPDF(_ context.Context, opts PDFOptions) ([]byte, error) {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.lastOpts = opts
	if p.browser.printErr != nil {
		return nil, p.browser.printErr
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (p *fakePage) Close() error {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	p.browser.open--
	return nil
}

type launchCounter struct {
	mu       sync.Mutex
	launches int
	browsers []*fakeBrowser
}

func (l *launchCounter) launch(context.Context) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	b := &fakeBrowser{alive: true}
	l.browsers = append(l.browsers, b)
	return b, nil
}

func newTestManager(t *testing.T, launch Launcher) (*Manager, string, string) {
	t.Helper()
	dataDir := t.TempDir()
	reportsDir := t.TempDir()
	m := NewManager(launch, Options{DataDir: dataDir, ReportsDir: reportsDir}, nil)
	m.now = func() time.Time { return time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC) }
	return m, dataDir, reportsDir
}

func TestRenderHTMLAlwaysRegenerates(t *testing.T) {
	m, _, reportsDir := newTestManager(t, (&launchCounter{}).launch)
	path := filepath.Join(reportsDir, "fuel_report.html")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	got, err := m.RenderHTML(models.CategoryFuel)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, `src="./fuel_report.png"`)
	assert.Contains(t, html, "FUEL Report")
	assert.Contains(t, html, "2024-05-14T10:30:00Z")
}

func TestRenderHTMLRejectsMergedCategory(t *testing.T) {
	m, _, _ := newTestManager(t, (&launchCounter{}).launch)
	_, err := m.RenderHTML(models.CategoryMerged)
	require.Error(t, err)
}

func TestRenderPDFReusesBrowser(t *testing.T) {
	launcher := &launchCounter{}
	m, dataDir, _ := newTestManager(t, launcher.launch)

	for _, c := range models.ReportCategories {
		path, err := m.RenderPDF(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dataDir, string(c)+"_report.pdf"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	}

	require.Equal(t, 1, launcher.launches)
	b := launcher.browsers[0]
	assert.Equal(t, 2, b.pages)
	assert.Equal(t, 1, b.maxOpen)
	assert.Zero(t, b.open)
	assert.True(t, strings.HasPrefix(b.lastURL, "file://"))
	assert.True(t, strings.HasSuffix(b.lastURL, "flight_report.html"))
	assert.InDelta(t, 8.27, b.lastOpts.PaperWidth, 0.001)
	assert.True(t, b.lastOpts.PrintBackground)
	assert.Contains(t, b.lastOpts.HeaderTemplate, "FLIGHT")
	assert.Contains(t, b.lastOpts.FooterTemplate, "totalPages")
}

func TestRenderPDFConcurrentCallsShareBrowser(t *testing.T) {
	launcher := &launchCounter{}
	m, _, _ := newTestManager(t, launcher.launch)

	var wg sync.WaitGroup
	errs := make(chan error, len(models.ReportCategories))
	for _, c := range models.ReportCategories {
		wg.Add(1)
		go func(c models.Category) {
			defer wg.Done()
			_, err := m.RenderPDF(context.Background(), c)
			errs <- err
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, launcher.launches)
	assert.Zero(t, launcher.browsers[0].open)
}

func TestRenderPDFClosesPageOnFailure(t *testing.T) {
	launcher := &launchCounter{}
	m, dataDir, _ := newTestManager(t, launcher.launch)

	b, err := m.Browser(context.Background())
	require.NoError(t, err)
	fb := b.(*fakeBrowser)
	fb.navErr = errors.New("net::ERR_FILE_NOT_FOUND")

	_, err = m.RenderPDF(context.Background(), models.CategoryFuel)
	require.Error(t, err)
	assert.Zero(t, fb.open)
	assert.NoFileExists(t, filepath.Join(dataDir, "fuel_report.pdf"))

	fb.navErr = nil
	fb.printErr = errors.New("print failed")
	_, err = m.RenderPDF(context.Background(), models.CategoryFuel)
	require.Error(t, err)
	assert.Zero(t, fb.open)
}

func TestBrowserRelaunchedWhenDead(t *testing.T) {
	launcher := &launchCounter{}
	m, _, _ := newTestManager(t, launcher.launch)

	first, err := m.Browser(context.Background())
	require.NoError(t, err)
	again, err := m.Browser(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)

	first.(*fakeBrowser).alive = false
	second, err := m.Browser(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, launcher.launches)
	assert.True(t, first.(*fakeBrowser).closed)
}

func TestCloseShutsBrowserDown(t *testing.T) {
	launcher := &launchCounter{}
	m, _, _ := newTestManager(t, launcher.launch)

	b, err := m.Browser(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.True(t, b.(*fakeBrowser).closed)

	_, err = m.RenderPDF(context.Background(), models.CategoryFuel)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLaunchFailureIsReturned(t *testing.T) {
	m, _, _ := newTestManager(t, func(context.Context) (Browser, error) {
		return nil, errors.New("chrome not found")
	})
	_, err := m.RenderPDF(context.Background(), models.CategoryFlight)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")
}
