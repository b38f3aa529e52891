package client

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"github.com/samuelmt/detran-fines/dto"
	"github.com/samuelmt/detran-fines/service"
)

// Pacing mirrors a human operator; the portal rejects sessions that move
// too fast.
const (
	typingDelay   = 100 * time.Millisecond
	checkboxDelay = 200 * time.Millisecond
	issueSettle   = 800 * time.Millisecond
	popupWait     = 3 * time.Second
	downloadWait  = 25 * time.Second
	downloadPoll  = 500 * time.Millisecond
)

const (
	plateSelector   = `input[placeholder*="Placa" i]`
	renavamSelector = `input[placeholder*="Renavam" i]`
	tableSelector   = `table tbody tr`
)

// BrowserPortal drives the portal with one Chrome instance. It implements
// service.Portal; one instance per run, never shared.
type BrowserPortal struct {
	url           string
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func NewBrowserPortal(url string, headless bool) (*BrowserPortal, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Launch eagerly so a missing Chrome fails the run before any vehicle.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &BrowserPortal{
		url:           url,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

func (p *BrowserPortal) Close() error {
	p.browserCancel()
	p.allocCancel()
	return nil
}

// StartSession opens a fresh tab, navigates to the consultation form, fills
// it in and submits it.
func (p *BrowserPortal) StartSession(ctx context.Context, vehicle dto.Vehicle) (service.PortalSession, error) {
	tabCtx, tabCancel := chromedp.NewContext(p.browserCtx)
	s := &browserSession{tabCtx: tabCtx, tabCancel: tabCancel, exec: chromedp.Run}

	if err := s.open(ctx, p.url, vehicle); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type browserSession struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc
	exec      func(context.Context, ...chromedp.Action) error
}

// run executes chromedp actions on the tab, honoring the caller's deadline.
func (s *browserSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.tabCtx, deadline)
		defer cancel()
	}
	return s.exec(runCtx, actions...)
}

// dismissPopup closes the welcome popup if one is showing. The wait is bounded
// separately from the vehicle deadline: a popup-less page must fall through
// after timeout, not consume the whole vehicle budget waiting for a node that
// never appears.
func (s *browserSession) dismissPopup(timeout time.Duration) {
	popupCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	if err := s.exec(popupCtx, chromedp.Click(buttonXPath("fechar"), chromedp.BySearch, chromedp.NodeVisible)); err == nil {
		log.Println("Portal popup closed")
	}
}

func (s *browserSession) open(ctx context.Context, url string, vehicle dto.Vehicle) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}

	// Welcome popup does not always show.
	s.dismissPopup(popupWait)

	if err := s.run(ctx, chromedp.Click(textXPath("Taxas / Multas"), chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to open Taxas/Multas: %w", err)
	}

	if err := s.typeSlowly(ctx, plateSelector, vehicle.Plate); err != nil {
		return fmt.Errorf("failed to fill plate: %w", err)
	}
	if err := s.typeSlowly(ctx, renavamSelector, vehicle.Renavam); err != nil {
		return fmt.Errorf("failed to fill renavam: %w", err)
	}

	if err := s.run(ctx,
		chromedp.Click(buttonXPath("consultar", "confirmar", "pesquisar"), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to submit consultation: %w", err)
	}
	return nil
}

func (s *browserSession) typeSlowly(ctx context.Context, selector, value string) error {
	if err := s.run(ctx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
	); err != nil {
		return err
	}
	for _, r := range value {
		if err := s.run(ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		time.Sleep(typingDelay)
	}
	return nil
}

func (s *browserSession) PageText(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

func (s *browserSession) OpenFineDetails(ctx context.Context) error {
	if err := s.run(ctx,
		chromedp.Click(textXPath("clique aqui"), chromedp.BySearch, chromedp.NodeVisible),
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open fine table: %w", err)
	}
	return nil
}

func (s *browserSession) FineRows(ctx context.Context) ([]string, error) {
	var rows []string
	js := `Array.from(document.querySelectorAll("table tbody tr")).map(tr => tr.innerText.replace(/\n/g, " "))`
	if err := s.run(ctx, chromedp.Evaluate(js, &rows)); err != nil {
		return nil, fmt.Errorf("failed to read fine rows: %w", err)
	}
	return rows, nil
}

func (s *browserSession) SelectRows(ctx context.Context, indexes []int) (int, error) {
	selected := 0
	for _, index := range indexes {
		js := fmt.Sprintf(`(function() {
			const row = document.querySelectorAll("table tbody tr")[%d];
			if (!row) return false;
			const box = row.querySelector('mat-checkbox label, mat-checkbox span, input[type="checkbox"]');
			if (!box) return false;
			box.scrollIntoView();
			box.click();
			return true;
		})()`, index)

		var ok bool
		if err := s.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
			return selected, fmt.Errorf("failed to select row %d: %w", index, err)
		}
		if ok {
			selected++
		} else {
			log.Printf("Checkbox not found on row %d", index)
		}
		time.Sleep(checkboxDelay)
	}
	return selected, nil
}

func (s *browserSession) IssueReceipt(ctx context.Context, dir string) (string, error) {
	before, err := listPDFs(dir)
	if err != nil {
		return "", err
	}

	if err := s.run(ctx, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(dir).
		WithEventsEnabled(true)); err != nil {
		return "", fmt.Errorf("failed to set download dir: %w", err)
	}

	if err := s.run(ctx, chromedp.Click(buttonXPath("emitir"), chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("failed to click issue button: %w", err)
	}
	time.Sleep(issueSettle)

	if err := s.run(ctx, chromedp.Click(buttonXPath("baixar extrato", "baixar", "extrato"), chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("receipt download button not found: %w", err)
	}

	return s.waitForDownload(ctx, dir, before)
}

func (s *browserSession) waitForDownload(ctx context.Context, dir string, before map[string]bool) (string, error) {
	deadline := time.Now().Add(downloadWait)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		current, err := listPDFs(dir)
		if err != nil {
			return "", err
		}
		for name := range current {
			if !before[name] {
				path := filepath.Join(dir, name)
				log.Printf("Receipt saved: %s", path)
				return path, nil
			}
		}
		time.Sleep(downloadPoll)
	}
	return "", fmt.Errorf("timed out waiting for receipt download")
}

func (s *browserSession) Close() error {
	s.tabCancel()
	return nil
}

func listPDFs(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list download dir: %w", err)
	}
	files := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			files[name] = true
		}
	}
	return files, nil
}

const lowercase = "abcdefghijklmnopqrstuvwxyzáéíóúâêôãç"
const uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZÁÉÍÓÚÂÊÔÃÇ"

// buttonXPath matches a button or link whose text contains any of the given
// words, case-insensitively.
func buttonXPath(words ...string) string {
	var conditions []string
	for _, word := range words {
		conditions = append(conditions,
			fmt.Sprintf(`contains(translate(., %q, %q), %q)`, uppercase, lowercase, word))
	}
	return fmt.Sprintf(`//button[%[1]s] | //a[%[1]s]`, strings.Join(conditions, " or "))
}

// textXPath matches any element containing the given text.
func textXPath(text string) string {
	return fmt.Sprintf(`//*[contains(translate(., %q, %q), %q)]`,
		uppercase, lowercase, strings.ToLower(text))
}
