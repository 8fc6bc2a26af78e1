package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/asteroid-defense/catalog"
	"github.com/signalsfoundry/asteroid-defense/internal/config"
	"github.com/signalsfoundry/asteroid-defense/internal/logging"
	"github.com/signalsfoundry/asteroid-defense/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "neo-catalog: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("neo-catalog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a YAML/JSON config file")
	startDate := fs.String("start", "", "First close-approach date (YYYY-MM-DD); defaults to today")
	endDate := fs.String("end", "", "Last close-approach date (YYYY-MM-DD); defaults to -start")
	limit := fs.Int("limit", -1, "Maximum candidates to list; 0 lists all")
	pick := fs.Int("select", 1, "Candidate number to hand over; 0 only lists")
	out := fs.String("out", "handoff.json", "Where to write the handoff file")
	apiKey := fs.String("api-key", "", "NeoWs API key")
	baseURL := fs.String("base-url", "", "NeoWs feed URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *apiKey != "" {
		cfg.Catalog.APIKey = *apiKey
	}
	if *baseURL != "" {
		cfg.Catalog.BaseURL = *baseURL
	}
	if *limit >= 0 {
		cfg.Catalog.Limit = *limit
	}

	start, end, err := dateRange(*startDate, *endDate, time.Now().UTC())
	if err != nil {
		return err
	}

	log := logging.NewWithWriter(stderr, cfg.Logging())
	collector, err := observability.NewCatalogCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	opts := []catalog.Option{
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithLogger(log),
		catalog.WithObserver(collector),
	}
	if cfg.Catalog.MaxTries > 0 {
		opts = append(opts, catalog.WithBackOff(backoff.NewExponentialBackOff(), cfg.Catalog.MaxTries))
	}
	client := catalog.NewClient(cfg.Catalog.APIKey, opts...)

	store := catalog.NewStore()
	unsubscribe := store.Subscribe(func(ev catalog.Event) {
		switch ev.Type {
		case catalog.EventCandidatesLoaded:
			log.Info(ctx, "candidates loaded", logging.Int("count", ev.Count))
		case catalog.EventCandidateSelected:
			log.Info(ctx, "candidate selected",
				logging.Int("id", ev.Selected.ID),
				logging.String("name", ev.Selected.Record.Name),
			)
		}
	})
	defer unsubscribe()

	records, err := client.Candidates(ctx, start, end, cfg.Catalog.Limit)
	switch {
	case errors.Is(err, catalog.ErrDateRange):
		return err
	case err != nil:
		// The simulator still runs on the default asteroid.
		log.Warn(ctx, "catalog unavailable; handing over the default asteroid", logging.Err(err))
	default:
		store.Replace(records)
		printCandidates(stdout, store.List())
	}

	if *pick == 0 {
		return nil
	}
	if err == nil {
		if err := store.Select(*pick); err != nil {
			return err
		}
	}
	return writeHandoff(*out, store.Handoff(), stdout)
}

// dateRange resolves the query dates. An empty start means today and an
// empty end means the start date.
func dateRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	start := now.Truncate(24 * time.Hour)
	if startStr != "" {
		t, err := time.Parse(catalog.DateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", catalog.ErrDateRange, startStr)
		}
		start = t
	}
	end := start
	if endStr != "" {
		t, err := time.Parse(catalog.DateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", catalog.ErrDateRange, endStr)
		}
		end = t
	}
	return start, end, catalog.ValidateRange(start, end)
}

func printCandidates(w io.Writer, candidates []catalog.Candidate) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tDATE\tSIZE\tVELOCITY\tMISS DISTANCE\tRISK")
	for _, c := range candidates {
		r := c.Record
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			r.Name,
			r.CloseApproachDate,
			catalog.FormatSize(r.DiameterMinKm, r.DiameterMaxKm),
			catalog.FormatVelocity(r.VelocityKmS),
			catalog.FormatDistance(r.MissDistanceKm),
			catalog.RiskLabel(r.IsHazardous),
		)
	}
	_ = tw.Flush()
}

func writeHandoff(path string, fields map[string]string, stdout io.Writer) error {
	data, err := catalog.EncodeHandoff(fields)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write handoff: %w", err)
	}
	fmt.Fprintf(stdout, "handed over %s to %s\n", fields[catalog.KeyName], path)
	for _, k := range catalog.SortedKeys(fields) {
		fmt.Fprintf(stdout, "  %s: %s\n", k, fields[k])
	}
	return nil
}
