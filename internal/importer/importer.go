package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

// maxOptions is the number of optionN.name/optionN.value column pairs read.
const maxOptions = 3

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CollectionWriter interface {
	Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error)
}

// CSVImporter reads catalog CSV files and upserts products with their options,
// variants, images and collection memberships.
//
// A row with a handle starts a product (or continues it when the handle
// repeats). Rows with an empty handle continue the current product and may
// carry another variant, another image, or both.
type CSVImporter struct {
	reader      *csv.Reader
	products    ProductWriter
	collections CollectionWriter
	currency    string
	logger      *zap.Logger
	seen        map[string]bool
}

func NewCSVImporter(r io.Reader, products ProductWriter, collections CollectionWriter, defaultCurrency string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:      csvr,
		products:    products,
		collections: collections,
		currency:    strings.ToUpper(defaultCurrency),
		logger:      logger,
		seen:        map[string]bool{},
	}
}

type csvRow struct {
	line        int
	Handle      string
	Title       string
	Desc        string
	Collections []string
	Options     []domain.SelectedOption
	VariantID   string
	SKU         string
	Price       string
	Currency    string
	Available   string
	Quantity    string
	ImageURL    string
	ImageAlt    string
}

func (r csvRow) hasVariant() bool {
	return r.Price != "" || r.VariantID != "" || len(r.Options) > 0
}

// Run parses CSV rows and upserts products grouped by handle.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["handle"]; !ok {
		return 0, errors.New("read headers: missing handle column")
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line

		if row.Handle != "" && (current == nil || row.Handle != current.Handle) {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = &domain.Product{
				Handle:      row.Handle,
				Title:       row.Title,
				Description: row.Desc,
				Collections: row.Collections,
			}
		}
		if current == nil {
			return imported, fmt.Errorf("line %d: continuation row before any product", line)
		}
		if err := i.apply(current, *row); err != nil {
			return imported, err
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

// apply adds the row's variant and image to p.
func (i *CSVImporter) apply(p *domain.Product, row csvRow) error {
	if row.ImageURL != "" {
		p.Images = append(p.Images, domain.Image{URL: row.ImageURL, AltText: row.ImageAlt})
	}
	if !row.hasVariant() {
		return nil
	}

	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q for %q", row.line, row.Price, p.Handle)
	}
	if price.IsNegative() {
		return fmt.Errorf("line %d: negative price for %q", row.line, p.Handle)
	}
	currency := strings.ToUpper(row.Currency)
	if currency == "" {
		currency = i.currency
	}
	available := true
	if row.Available != "" {
		available, err = strconv.ParseBool(row.Available)
		if err != nil {
			return fmt.Errorf("line %d: invalid availability %q", row.line, row.Available)
		}
	}
	var qty *int
	if row.Quantity != "" {
		n, err := strconv.Atoi(row.Quantity)
		if err != nil {
			return fmt.Errorf("line %d: invalid quantity %q", row.line, row.Quantity)
		}
		qty = &n
		if n <= 0 && row.Available == "" {
			available = false
		}
	}

	titles := make([]string, 0, len(row.Options))
	for _, o := range row.Options {
		addOptionValue(p, o)
		titles = append(titles, o.Value)
	}
	title := strings.Join(titles, " / ")
	if title == "" {
		title = "Default Title"
	}

	p.Variants = append(p.Variants, domain.ProductVariant{
		ID:                row.VariantID,
		Title:             title,
		Price:             domain.Money{Amount: price, CurrencyCode: currency},
		AvailableForSale:  available,
		SelectedOptions:   row.Options,
		SKU:               row.SKU,
		QuantityAvailable: qty,
	})
	return nil
}

func addOptionValue(p *domain.Product, o domain.SelectedOption) {
	for idx := range p.Options {
		if p.Options[idx].Name != o.Name {
			continue
		}
		for _, v := range p.Options[idx].Values {
			if v == o.Value {
				return
			}
		}
		p.Options[idx].Values = append(p.Options[idx].Values, o.Value)
		return
	}
	p.Options = append(p.Options, domain.ProductOption{Name: o.Name, Values: []string{o.Value}})
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if p.Handle == "" || p.Title == "" {
		return fmt.Errorf("invalid product row (missing handle or title) for handle %q", p.Handle)
	}
	if len(p.Variants) == 0 {
		return fmt.Errorf("product %q has no variants", p.Handle)
	}
	for _, v := range p.Variants {
		if len(v.SelectedOptions) != len(p.Options) {
			return fmt.Errorf("product %q: variant %q sets %d of %d options", p.Handle, v.Title, len(v.SelectedOptions), len(p.Options))
		}
	}

	if i.collections != nil {
		for _, handle := range p.Collections {
			if i.seen[handle] {
				continue
			}
			if _, err := i.collections.Upsert(ctx, domain.Collection{Handle: handle, Title: titleFromHandle(handle)}); err != nil {
				return fmt.Errorf("upsert collection %q: %w", handle, err)
			}
			i.seen[handle] = true
		}
	}

	if _, err := i.products.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Handle, err)
	}
	i.logger.Debug("imported product", zap.String("handle", p.Handle), zap.Int("variants", len(p.Variants)))
	return nil
}

func titleFromHandle(handle string) string {
	words := strings.Fields(strings.ReplaceAll(handle, "-", " "))
	for n, w := range words {
		words[n] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		Handle:    pick(record, index, "handle"),
		Title:     pick(record, index, "title"),
		Desc:      pick(record, index, "description"),
		VariantID: pick(record, index, "variant.id"),
		SKU:       pick(record, index, "variant.sku"),
		Price:     pick(record, index, "variant.price"),
		Currency:  pick(record, index, "variant.currency"),
		Available: pick(record, index, "variant.available"),
		Quantity:  pick(record, index, "variant.quantity"),
		ImageURL:  pick(record, index, "image.url"),
		ImageAlt:  pick(record, index, "image.alt"),
	}
	for _, c := range strings.Split(pick(record, index, "collections"), ";") {
		if c = strings.TrimSpace(c); c != "" {
			row.Collections = append(row.Collections, c)
		}
	}
	for n := 1; n <= maxOptions; n++ {
		name := pick(record, index, fmt.Sprintf("option%d.name", n))
		value := pick(record, index, fmt.Sprintf("option%d.value", n))
		if name != "" && value != "" {
			row.Options = append(row.Options, domain.SelectedOption{Name: name, Value: value})
		}
	}

	if row.Handle == "" && row.ImageURL == "" && !row.hasVariant() {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
