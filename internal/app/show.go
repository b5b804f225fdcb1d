package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Show prints the most recent entries of the signal audit log.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("show requires database.dsn to be configured")
	}
	defer closeStore()

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := store.ListRecentSignals(ctx, limit)
	if err != nil {
		return fmt.Errorf("list signals: %w", err)
	}

	total, err := store.CountSignals(ctx)
	if err != nil {
		return fmt.Errorf("count signals: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("no signals recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIRED AT\tSYMBOL\tSIGNAL\tPRI\tPRICE\tRSI\tVOL\t24H%")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.1f\t%.2f\t%s\n",
			rec.FiredAt.Format("2006-01-02 15:04:05"),
			rec.Symbol,
			rec.SignalType,
			rec.Priority,
			rec.Price.StringFixed(4),
			rec.RSI,
			rec.VolumeRatio,
			rec.Change24hPct.StringFixed(2),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d shown, %d total\n", len(records), total)
	return nil
}
