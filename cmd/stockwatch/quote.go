package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockwatch/internal/api"
	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/poller"
	"github.com/rickgao/stockwatch/internal/table"
)

// symbolList is a fixed poller source.
type symbolList []model.Symbol

func (s symbolList) AllSymbols() []model.Symbol { return s }

func parseSymbols(args []string) (symbolList, error) {
	syms := make(symbolList, 0, len(args))
	for _, a := range args {
		sym, err := model.ParseSymbol(a)
		if err != nil {
			return nil, err
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

func newQuoteCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Run one poll cycle for the given symbols and print the rows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(os.Stderr)
			if err != nil {
				return err
			}
			syms, err := parseSymbols(args)
			if err != nil {
				return err
			}

			up := newUpstream(cfg.API, logger)
			t := table.New()
			p := poller.New(poller.Config{
				Concurrency: cfg.Poller.Concurrency,
				Timeout:     cfg.Poller.Timeout,
			}, up.quotes, syms, t, logger)

			cycle, err := p.RunCycle(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				snap := display.NewSnapshot("", cycle.ID, t.Rows(), palette(cfg.Display))
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCODE\tNAME\tPRICE\tCHANGE\tRATE")
			for _, r := range t.Rows() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					r.Index, r.DisplayCode, r.Name,
					model.FormatPrice(r.Price), model.FormatPrice(r.ChangeAmount), r.ChangeRateDisplay)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if missing := missingSymbols(cycle); len(missing) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no quote: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON snapshot")
	return cmd
}

func missingSymbols(c model.Cycle) []string {
	var out []string
	for i, q := range c.Results {
		if q == nil {
			out = append(out, c.Symbols[i].Display())
		}
	}
	return out
}

func newKlineCmd(g *globals) *cobra.Command {
	var (
		params         api.KlineParams
		period, adjust string
	)
	cmd := &cobra.Command{
		Use:   "kline SYMBOL",
		Short: "Print history candles for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(os.Stderr)
			if err != nil {
				return err
			}
			sym, err := model.ParseSymbol(args[0])
			if err != nil {
				return err
			}
			if params.Period, err = parsePeriod(period); err != nil {
				return err
			}
			if params.Adjust, err = parseAdjust(adjust); err != nil {
				return err
			}

			client := newUpstream(cfg.API, logger).klines
			klines, err := client.GetKlines(cmd.Context(), sym, params)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tOPEN\tCLOSE\tHIGH\tLOW\tVOLUME")
			for _, k := range klines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					k.Date, model.FormatPrice(k.Open), model.FormatPrice(k.Close),
					model.FormatPrice(k.High), model.FormatPrice(k.Low), k.Volume)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&params.Begin, "beg", "", "first date, yyyyMMdd")
	cmd.Flags().StringVar(&params.End, "end", "", "last date, yyyyMMdd")
	cmd.Flags().StringVar(&period, "period", "daily", "daily, weekly or monthly")
	cmd.Flags().StringVar(&adjust, "adjust", "none", "none, forward or back")
	return cmd
}

func parsePeriod(s string) (int, error) {
	switch s {
	case "", "daily":
		return api.PeriodDaily, nil
	case "weekly":
		return api.PeriodWeekly, nil
	case "monthly":
		return api.PeriodMonthly, nil
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

func parseAdjust(s string) (int, error) {
	switch s {
	case "", "none":
		return api.AdjustNone, nil
	case "forward", "qfq":
		return api.AdjustForward, nil
	case "back", "hfq":
		return api.AdjustBack, nil
	}
	return 0, fmt.Errorf("unknown adjust mode %q", s)
}
