package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aungthurhahein/GaruduaEye/internal/alerting"
)

// Show prints recent rate points, or recent alert events with --alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer writer.Flush()

	if opts.Alerts {
		events, err := store.ListRecentAlertEvents(ctx, opts.Limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stdout, "no alert events found")
			return nil
		}

		fmt.Fprintln(writer, "Fired (UTC)\tRecipient\tThreshold\tObserved")
		for _, ev := range events {
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\n",
				ev.FiredAt.UTC().Format(time.RFC3339),
				alerting.MaskRecipient(ev.Recipient),
				ev.Threshold.StringFixed(6),
				ev.ObservedRate.StringFixed(6),
			)
		}
		return nil
	}

	points, err := store.ListRecentPoints(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(os.Stdout, "no rate points found")
		return nil
	}

	fmt.Fprintln(writer, "Observed (UTC)\tRate\tSource")
	for _, point := range points {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\n",
			point.ObservedAt.UTC().Format(time.RFC3339),
			point.Rate.StringFixed(6),
			sanitizeInline(point.Source),
		)
	}
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
