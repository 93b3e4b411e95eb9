package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"fotokeramika/catalog"
	"fotokeramika/models"
	"fotokeramika/pricing"
	"fotokeramika/repository"
	"fotokeramika/utils"
)

//go:embed templates/order_sheet.html
var templateFiles embed.FS

// pdfTimeout bounds a single headless Chrome print
const pdfTimeout = 30 * time.Second

// SheetLine is one priced line of an order sheet
type SheetLine struct {
	Label  string
	Amount string
}

// OrderSheet is the production ticket printed for the workshop
type OrderSheet struct {
	Title       string
	OrderNumber string
	Date        string
	Status      string
	Service     string
	Size        string
	Material    string
	CustomText  string
	Lines       []SheetLine
	Total       string
	Photos      []string
}

// OrderSheetConfig holds the collaborators of an OrderSheetService
type OrderSheetConfig struct {
	Engine     *pricing.Engine
	Catalog    *catalog.Catalog
	Orders     repository.OrderRepositoryInterface
	Wizard     *OrderService
	ChromePath string
}

// OrderSheetService renders order sheets as HTML and prints them to PDF
type OrderSheetService struct {
	engine     *pricing.Engine
	catalog    *catalog.Catalog
	orders     repository.OrderRepositoryInterface
	wizard     *OrderService
	chromePath string
	tmpl       *template.Template
	now        func() time.Time
}

// NewOrderSheetService parses the embedded sheet template
func NewOrderSheetService(cfg OrderSheetConfig) (*OrderSheetService, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/order_sheet.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &OrderSheetService{
		engine:     cfg.Engine,
		catalog:    cfg.Catalog,
		orders:     cfg.Orders,
		wizard:     cfg.Wizard,
		chromePath: cfg.ChromePath,
		tmpl:       tmpl,
		now:        time.Now,
	}, nil
}

// FromWizard builds a sheet from a wizard session. The session's last submitted
// order is used when the wizard has been reset since.
func (s *OrderSheetService) FromWizard(wizardID string) (OrderSheet, error) {
	state, err := s.wizard.Get(wizardID)
	if err != nil {
		return OrderSheet{}, err
	}

	if state.LastOrder != nil && isEmptyConfiguration(state.Config) && len(state.Photos) == 0 {
		order := state.LastOrder
		photos := order.Thumbnails
		if len(photos) == 0 {
			photos = order.Config.PhotoURLs
		}
		sheet := s.build(order.Config, order.Price, photos)
		sheet.OrderNumber = order.OrderNumber
		sheet.Status = models.OrderStatusPending
		return sheet, nil
	}

	photos := make([]string, 0, len(state.Photos))
	for _, p := range state.Photos {
		if p.URL != "" {
			photos = append(photos, p.URL)
		}
	}
	sheet := s.build(state.Config, state.Quote.Total, photos)
	sheet.Status = "черновик"
	return sheet, nil
}

// FromOrder builds a sheet for a stored order placed by identity.
// Orders of other users, and orders placed anonymously, are reported as not found.
func (s *OrderSheetService) FromOrder(ctx context.Context, orderNumber string, identity models.Identity) (OrderSheet, error) {
	if !identity.Authenticated || identity.UserID == "" {
		return OrderSheet{}, ErrAuthenticationRequired
	}
	stored, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return OrderSheet{}, err
	}
	if stored.UserID != identity.UserID {
		log.Printf("⚠️  Order sheet: %s refused for user %s", orderNumber, identity.UserID)
		return OrderSheet{}, repository.ErrOrderNotFound
	}

	cfg := models.OrderConfiguration{
		ServiceType: models.ServiceType(stored.ServiceType),
		Size:        stored.Size,
		Material:    stored.Material,
		Options:     stored.Options,
		CustomText:  stored.CustomText,
		PhotoURLs:   stored.PhotoURLs,
	}
	sheet := s.build(cfg, stored.Price, stored.PhotoURLs)
	sheet.OrderNumber = stored.OrderNumber
	sheet.Status = stored.Status
	if !stored.CreatedAt.IsZero() {
		sheet.Date = stored.CreatedAt.Format("02.01.2006 15:04")
	}
	return sheet, nil
}

// build lays out the price breakdown. total is the price the order was (or will be) charged;
// the lines are recomputed from the configuration.
func (s *OrderSheetService) build(cfg models.OrderConfiguration, total int64, photos []string) OrderSheet {
	quote := s.engine.Quote(cfg)

	lines := []SheetLine{{Label: s.baseLabel(cfg, quote), Amount: utils.FormatRUB(quote.BasePrice)}}
	for _, m := range quote.Modifiers {
		lines = append(lines, SheetLine{Label: s.modifierLabel(m.ID), Amount: "+" + utils.FormatRUB(m.Amount)})
	}

	title := "Бланк заказа"
	if cfg.ServiceType != "" {
		title = s.catalog.ServiceName(cfg.ServiceType)
	}

	return OrderSheet{
		Title:      title,
		Date:       s.now().Format("02.01.2006 15:04"),
		Service:    s.catalog.ServiceName(cfg.ServiceType),
		Size:       cfg.Size,
		Material:   s.catalog.MaterialName(cfg.Material),
		CustomText: cfg.CustomText,
		Lines:      lines,
		Total:      utils.FormatRUB(total),
		Photos:     photos,
	}
}

func (s *OrderSheetService) baseLabel(cfg models.OrderConfiguration, quote models.PriceQuote) string {
	switch quote.BaseSource {
	case models.BaseSourceSubscription:
		return fmt.Sprintf("Подписка на %s изделий", *cfg.Options.Subscription)
	case models.BaseSourcePlate:
		return "Табличка"
	case models.BaseSourceNone:
		return "Размер не выбран"
	default:
		return "Изготовление " + cfg.Size
	}
}

func (s *OrderSheetService) modifierLabel(id string) string {
	switch {
	case strings.HasPrefix(id, "retouch_"):
		tier := models.RetouchTier(strings.TrimPrefix(id, "retouch_"))
		for _, r := range s.catalog.Retouch {
			if r.ID == tier {
				return "Ретушь: " + r.Name
			}
		}
		return "Ретушь"
	case id == "old_photo_improvement":
		return "Улучшение старого фото"
	case id == "qr_biography":
		return "QR-код с биографией"
	}
	return id
}

// RenderHTML renders the sheet template
func (s *OrderSheetService) RenderHTML(sheet OrderSheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, sheet); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF prints the sheet to an A4 PDF with headless Chrome
func (s *OrderSheetService) RenderPDF(ctx context.Context, sheet OrderSheet) ([]byte, error) {
	html, err := s.RenderHTML(sheet)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("enable-print-preview", true),
	)
	if chromePath := detectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		// Wait for photos to load
		chromedp.Evaluate(`
			Promise.all(Array.from(document.querySelectorAll('img')).map(img => {
				return new Promise((resolve) => {
					if (img.complete) { resolve(); return; }
					const timeout = setTimeout(() => resolve(), 5000);
					img.onload = () => { clearTimeout(timeout); resolve(); };
					img.onerror = () => { clearTimeout(timeout); resolve(); };
				});
			}));
		`, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithAwaitPromise(true) }),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 = 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		log.Printf("❌ OrderSheet: PDF generation failed: %v", err)
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	log.Printf("✅ OrderSheet: printed %s (%d bytes)", sheet.OrderNumber, len(pdfBuf))
	return pdfBuf, nil
}

// detectChromePath returns the configured Chrome executable, or the first common installation found
func detectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func isEmptyConfiguration(cfg models.OrderConfiguration) bool {
	return cfg.ServiceType == "" && cfg.Size == "" && cfg.Material == "" && len(cfg.PhotoURLs) == 0
}
