// taxcalc evaluates tax rule files offline.
//
// Usage:
//
//	taxcalc evaluate --rules rules.json --context booking.json [--currency EUR]
//	taxcalc validate --rules rules.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/anyulbade/stay-tax-engine/internal/dto"
	"github.com/anyulbade/stay-tax-engine/internal/engine"
	"github.com/anyulbade/stay-tax-engine/internal/model"
	"github.com/anyulbade/stay-tax-engine/internal/rulestore"
	"github.com/anyulbade/stay-tax-engine/internal/service"
)

var version = "dev"

// The rule file is loaded under this id; it only labels log lines.
const fileProperty = "file"

func main() {
	app := &cli.App{
		Name:    "taxcalc",
		Usage:   "Evaluate and validate hotel tax rule files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return err
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
			zerolog.DefaultContextLogger = &log.Logger
			return nil
		},
		Commands: []*cli.Command{
			evaluateCommand(),
			validateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Calculate taxes for one booking",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rules", Aliases: []string{"r"}, Usage: "Path to a JSON array of tax rules", Required: true},
			&cli.StringFlag{Name: "context", Aliases: []string{"c"}, Usage: "Path to a JSON booking (calculate request body)", Required: true},
			&cli.StringFlag{Name: "currency", Value: "USD", Usage: "Currency used when the booking names none"},
		},
		Action: func(c *cli.Context) error {
			return evaluate(c.Context, c.App.Writer, c.String("rules"), c.String("context"), c.String("currency"))
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Report invalid rule definitions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rules", Aliases: []string{"r"}, Usage: "Path to a JSON array of tax rules", Required: true},
		},
		Action: func(c *cli.Context) error {
			return validate(c.App.Writer, c.String("rules"))
		},
	}
}

func evaluate(ctx context.Context, w io.Writer, rulesPath, contextPath, currency string) error {
	records, err := rulestore.ReadFile(rulesPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(contextPath)
	if err != nil {
		return err
	}
	var req dto.CalculateTaxRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse %s: %w", contextPath, err)
	}

	loader := rulestore.NewMemoryLoader()
	loader.Put(fileProperty, records)
	svc := service.NewTaxService(rulestore.NewStore(loader), service.Options{DefaultCurrency: currency})

	res, err := svc.Calculate(ctx, fileProperty, &req)
	if err != nil {
		var ce *engine.ContextError
		if errors.As(err, &ce) {
			for _, f := range ce.Fields {
				fmt.Fprintf(w, "%s: %s\n", f.Field, f.Message)
			}
		}
		return cli.Exit(err.Error(), 2)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.NewCalculationResponse(res))
}

func validate(w io.Writer, rulesPath string) error {
	records, err := rulestore.ReadFile(rulesPath)
	if err != nil {
		return err
	}

	rules, defects := rulestore.Decode(records)
	for _, d := range defects {
		fmt.Fprintf(w, "%s: %s\n", d.RuleID, d.Reason)
	}

	usable := lo.CountBy(rules, func(r model.TaxRule) bool { return r.Validate() == nil })
	fmt.Fprintf(w, "%d records, %d usable, %d defects, version %s\n",
		len(records), usable, len(defects), rulestore.Version(records))

	if len(defects) > 0 {
		return cli.Exit("rule file has invalid definitions", 1)
	}
	return nil
}
