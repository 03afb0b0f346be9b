package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/internal/metrics"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// DefaultPrefix is the root path of exported metric lines.
const DefaultPrefix = "fler"

// Sink delivers flattened metric lines.
type Sink interface {
	Write(ctx context.Context, lines []string) error
}

// Exporter gathers a statistics snapshot from the Fler API and writes it to
// a Sink.
type Exporter struct {
	api     fler.API
	sink    Sink
	prefix  string
	log     *slog.Logger
	nowFunc func() time.Time
}

// Option configures the Exporter.
type Option func(*Exporter)

// WithPrefix sets the root path of exported lines.
func WithPrefix(p string) Option {
	return func(e *Exporter) {
		e.prefix = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		e.log = l
	}
}

// WithNowFunc overrides the clock used for line timestamps.
func WithNowFunc(f func() time.Time) Option {
	return func(e *Exporter) {
		e.nowFunc = f
	}
}

// NewExporter creates an Exporter. A nil sink makes Export a dry run that
// only logs the lines it would send.
func NewExporter(api fler.API, sink Sink, opts ...Option) *Exporter {
	e := &Exporter{
		api:     api,
		sink:    sink,
		prefix:  DefaultPrefix,
		log:     slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collect fetches account info and all available listings and builds the
// statistics tree:
//
//	account.{fans,rank,rating_count,rating_pct,products_available,products_sold}
//	product.<id>.{category,sellcategory,cool,craft,topable,price,...}
//
// Listing timestamps are normalized. A timestamp that cannot be parsed is
// left out of the tree and logged.
func (e *Exporter) Collect(ctx context.Context) (Tree, error) {
	acct, err := e.api.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching account info: %w", err)
	}

	listings, err := e.api.Products(ctx, fler.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}

	s := acct.Seller
	account := Tree{
		"fans":               s.FansCount.Int(),
		"rank":               acct.Rank(),
		"rating_count":       s.RatingCount.Int(),
		"rating_pct":         float64(s.RatingPct),
		"products_available": int64(len(listings)),
		"products_sold":      s.ProductsSoldCount.Int(),
	}

	products := make(Tree, len(listings))
	for i := range listings {
		products[listings[i].ID.String()] = e.listingTree(&listings[i])
	}

	return Tree{"account": account, "product": products}, nil
}

func (e *Exporter) listingTree(l *domain.Listing) Tree {
	t := Tree{
		"category":           l.Category.Int(),
		"sellcategory":       l.SellCategory.Int(),
		"cool":               l.IsCool.Int(),
		"craft":              l.IsCraft.Int(),
		"topable":            l.IsTopable.Int(),
		"price":              float64(l.Price),
		"price_without_prov": float64(l.PriceWithoutProv),
		"stock":              l.Stock.Int(),
	}

	for key, raw := range map[string]domain.Epoch{"inserted": l.TsIns, "topped": l.TsTop} {
		sec, err := raw.Seconds()
		if err != nil {
			e.log.Warn("skipping listing timestamp", "id", l.ID, "field", key, "error", err)
			continue
		}
		t[key] = sec
	}
	return t
}

// Export collects a snapshot, refreshes the account gauges and writes the
// flattened lines to the sink. It returns the number of lines produced.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	tree, err := e.Collect(ctx)
	if err != nil {
		return 0, err
	}

	updateGauges(tree)

	lines := tree.Lines(e.prefix, e.nowFunc().Unix())
	for _, l := range lines {
		e.log.Debug("carbon line", "line", l)
	}

	if e.sink == nil {
		e.log.Info("stats export dry run", "lines", len(lines))
		return len(lines), nil
	}

	if err := e.sink.Write(ctx, lines); err != nil {
		return 0, fmt.Errorf("writing stats: %w", err)
	}

	e.log.Info("stats exported", "lines", len(lines))
	return len(lines), nil
}

func updateGauges(tree Tree) {
	account, ok := tree["account"].(Tree)
	if !ok {
		return
	}
	set := func(g interface{ Set(float64) }, key string) {
		switch v := account[key].(type) {
		case int64:
			g.Set(float64(v))
		case float64:
			g.Set(v)
		}
	}
	set(metrics.AccountRank, "rank")
	set(metrics.AccountFans, "fans")
	set(metrics.AccountRatingPct, "rating_pct")
	set(metrics.ProductsAvailable, "products_available")
	set(metrics.ProductsSold, "products_sold")
}
