package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"StockPredict/internal/di"
	"StockPredict/internal/domain/models"
	domrepo "StockPredict/internal/domain/repository"
	"StockPredict/internal/services/synth"
	"StockPredict/pkg/config"
	applogger "StockPredict/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "seed",
		Usage: "fill the history tables with random-walk daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config/config.yaml", Usage: "config file path"},
			&cli.IntFlag{Name: "days", Value: 365, Usage: "bars per stock, ending yesterday"},
			&cli.StringSliceFlag{Name: "symbols", Usage: "restrict seeding to these symbols"},
			&cli.Uint64Flag{Name: "seed", Usage: "fixed random seed (0 draws a fresh one)"},
			&cli.BoolFlag{Name: "clear-predictions", Usage: "delete stored predictions first"},
		},
		Action: seedAction,
	}
}

func seedAction(c *cli.Context) error {
	cfg, err := config.LoadWithEnv(c.String("config"))
	if err != nil {
		return err
	}
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	store, err := di.ProvideStore(cfg, l)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []synth.Option
	if c.IsSet("seed") {
		opts = append(opts, synth.WithSeed(c.Uint64("seed")))
	}
	s := &seeder{
		store: store,
		cache: di.ProvideHistoryCache(cfg, l),
		gen:   synth.NewGenerator(opts...),
		log:   l,
	}
	return s.run(c.Context, selectStocks(synth.DefaultStocks, c.StringSlice("symbols")), c.Int("days"), c.Bool("clear-predictions"))
}

// historyInvalidator drops cached history windows of reseeded stocks.
type historyInvalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

type seeder struct {
	store domrepo.Store
	cache historyInvalidator
	gen   *synth.Generator
	log   *applogger.Logger
}

func (s *seeder) run(ctx context.Context, stocks []models.Stock, days int, clearPredictions bool) error {
	if days < 1 {
		return fmt.Errorf("days must be >= 1, got %d", days)
	}
	if len(stocks) == 0 {
		return fmt.Errorf("no stocks selected")
	}
	if clearPredictions {
		if err := s.store.ClearPredictions(ctx); err != nil {
			return fmt.Errorf("clear predictions: %w", err)
		}
		s.log.Info("predictions cleared")
	}

	for _, def := range stocks {
		st, err := s.store.EnsureStock(ctx, def.Symbol, def.CompanyName)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", def.Symbol, err)
		}
		records := s.gen.Generate(days)
		if err := s.store.ReplaceHistory(ctx, st.ID, records); err != nil {
			return fmt.Errorf("replace %s history: %w", def.Symbol, err)
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, st.Symbol); err != nil {
				s.log.Warn("history cache invalidation failed", applogger.String("symbol", st.Symbol), applogger.Error(err))
			}
		}
		s.log.Info("history seeded",
			applogger.String("symbol", st.Symbol),
			applogger.Int("rows", len(records)),
		)
	}
	return nil
}

// selectStocks keeps the catalog entries named in symbols. Unknown symbols
// are seeded under their own name.
func selectStocks(catalog []models.Stock, symbols []string) []models.Stock {
	if len(symbols) == 0 {
		return catalog
	}
	bySymbol := make(map[string]models.Stock, len(catalog))
	for _, st := range catalog {
		bySymbol[st.Symbol] = st
	}
	var out []models.Stock
	seen := make(map[string]bool)
	for _, raw := range symbols {
		for _, sym := range strings.Split(raw, ",") {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			if st, ok := bySymbol[sym]; ok {
				out = append(out, st)
				continue
			}
			out = append(out, models.Stock{Symbol: sym, CompanyName: sym})
		}
	}
	return out
}
