// Pricecheck quotes a single catalog item from the command line.
//
// Usage:
//
//	pricecheck quote --item BTR --actor csm --next-pricing --trim-discount
//	pricecheck quote --item PP6GR --actor customer --markup --unit-price 50
//	pricecheck items
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/Simplici0/pricecheck/internal/catalog"
	"github.com/Simplici0/pricecheck/internal/db"
	"github.com/Simplici0/pricecheck/internal/logging"
	"github.com/Simplici0/pricecheck/internal/policy"
	"github.com/Simplici0/pricecheck/internal/session"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pricecheck",
		Usage:   "Quote manufacturing cost, unit cost and unit price for a catalog item",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "SQLite catalog database (built-in catalog when empty)",
				EnvVars: []string{"PRICECHECK_DB"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logging.NewWithWriter(c.App.ErrWriter, c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			quoteCommand(),
			itemsCommand(),
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Price an item for an actor",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "item", Usage: "Item identifier", Required: true},
			&cli.StringFlag{Name: "actor", Usage: "Actor role (account, customer, csm)", Required: true},
			&cli.BoolFlag{Name: "trim-discount", Usage: "Apply the standard trim discount"},
			&cli.BoolFlag{Name: "markup", Usage: "Add markup (customer only; always on for account)"},
			&cli.BoolFlag{Name: "next-pricing", Usage: "Apply next pricing (csm only)"},
			&cli.StringFlag{Name: "unit-cost", Usage: "Override the unit cost (csm only)"},
			&cli.StringFlag{Name: "unit-price", Usage: "Override the unit price (customer with markup only)"},
			&cli.BoolFlag{Name: "json", Usage: "Print the quote as JSON"},
		},
		Action: runQuote,
	}
}

func itemsCommand() *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "List catalog items",
		Action: func(c *cli.Context) error {
			cat, err := openCatalog(c.Context, c.String("db"))
			if err != nil {
				return err
			}
			for _, item := range cat.Items() {
				fmt.Fprintf(c.App.Writer, "%-8s unit cost %-10s manufacturing cost %s\n",
					item.ID, item.BaseUnitCost.String(), item.BaseManufacturingCost.StringFixed(2))
			}
			return nil
		},
	}
}

func runQuote(c *cli.Context) error {
	cat, err := openCatalog(c.Context, c.String("db"))
	if err != nil {
		return err
	}

	actor, err := policy.ParseActor(c.String("actor"))
	if err != nil {
		return fmt.Errorf("%w: %q", err, c.String("actor"))
	}
	if !actor.Selected() {
		return fmt.Errorf("an actor is required")
	}

	view, err := quote(cat, actor, quoteOptions{
		item:         c.String("item"),
		trimDiscount: c.Bool("trim-discount"),
		markup:       c.Bool("markup"),
		nextPricing:  c.Bool("next-pricing"),
		unitCost:     c.String("unit-cost"),
		unitPrice:    c.String("unit-price"),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(c.App.Writer).Encode(view)
	}
	printQuote(c.App.Writer, view)
	return nil
}

type quoteOptions struct {
	item         string
	trimDiscount bool
	markup       bool
	nextPricing  bool
	unitCost     string
	unitPrice    string
}

// quote drives a fresh session through the same transitions the HTTP
// adapter exposes, so role restrictions apply unchanged.
func quote(cat *catalog.Catalog, actor policy.Actor, opts quoteOptions) (session.View, error) {
	s := session.New(cat)
	s.SelectActor(actor)
	if err := s.SetIdentifierText(opts.item); err != nil {
		return session.View{}, err
	}
	if !s.IsIdentifierValid(opts.item) {
		return session.View{}, fmt.Errorf("unknown item %q", opts.item)
	}
	if err := s.CheckPrice(); err != nil {
		return session.View{}, fmt.Errorf("check price: %w", err)
	}

	steps := []struct {
		enabled bool
		flag    string
		run     func() error
	}{
		{opts.trimDiscount, "--trim-discount", func() error { return s.ToggleModifier(session.ModifierTrimDiscount) }},
		{opts.markup && actor != policy.ActorAccount, "--markup", func() error { return s.ToggleModifier(session.ModifierMarkup) }},
		{opts.nextPricing, "--next-pricing", s.ApplyNextPricing},
		{opts.unitCost != "", "--unit-cost", func() error {
			return setOverride(s, session.ModifierOverrideUnitCost, session.OverrideUnitCost, opts.unitCost)
		}},
		{opts.unitPrice != "", "--unit-price", func() error {
			return setOverride(s, session.ModifierOverrideUnitPrice, session.OverrideUnitPrice, opts.unitPrice)
		}},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(); err != nil {
			return session.View{}, fmt.Errorf("%s for %s: %w", step.flag, actor, err)
		}
	}

	return s.Snapshot(), nil
}

func setOverride(s *session.Session, flag session.Modifier, which session.Override, text string) error {
	if err := s.ToggleModifier(flag); err != nil {
		return err
	}
	return s.SetOverrideValue(which, text)
}

func printQuote(w io.Writer, view session.View) {
	fmt.Fprintf(w, "Item:               %s\n", view.Identifier)
	fmt.Fprintf(w, "Manufacturing Cost: %s\n", view.Result.ManufacturingCost)
	fmt.Fprintf(w, "Unit Cost:          %s\n", view.Result.UnitCost)
	fmt.Fprintf(w, "Unit Price:         %s\n", view.Result.UnitPrice)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rules:")
	for _, line := range view.Explanation {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

func openCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.New(catalog.Default())
	}
	database, err := db.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer database.Close()
	return catalog.Load(ctx, database)
}
