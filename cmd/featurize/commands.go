package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/config"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/dataset"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/exporter"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/infrastructure"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/primitives"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/services"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/synthesis"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/internal/validation"
	"github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts"
	api "github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts/api/v1"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

type options struct {
	input        string
	output       string
	format       string
	dateLayout   string
	holiday      string
	logLevel     string
	transforms   []string
	aggregations []string
	customerIDs  []string
	ignore       []string
	maxDepth     int
	parallelism  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "featurize",
		Short: "Engineer customer features from a loan dataset",
		Long: `Load a loan dataset (JSON, CSV, XLSX or SQLite), run deep feature synthesis
and write one row of features per customer.

Primitive flags that are not given use the configured defaults; passing an
empty value, e.g. --transforms "", disables that primitive kind.

Examples:
  featurize --input loans.json --output features.csv
  featurize -i loans.csv -o - --aggregations mean,count --transforms "" --max-depth 1
  featurize -i loans.xlsx -o features.xlsx --customer-id 1090,296`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturize(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.input, "input", "i", "", "loan dataset (.json, .csv, .xlsx, .db); defaults to the configured data file")
	flags.StringVar(&opts.dateLayout, "date-layout", "", "layout of text dates in the input (Go reference time); defaults to the configured layout")
	flags.StringVar(&opts.holiday, "holiday", "", "holiday calendar for distance_to_holiday (new_years_day, us_federal)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringSliceVarP(&opts.transforms, "transforms", "t", nil, "transform primitives to apply")
	flags.StringSliceVarP(&opts.aggregations, "aggregations", "a", nil, "aggregation primitives to apply")
	flags.StringSliceVar(&opts.customerIDs, "customer-id", nil, "only emit these customers")
	flags.StringSliceVar(&opts.ignore, "ignore-columns", nil, "input columns to leave out of synthesis")
	flags.IntVarP(&opts.maxDepth, "max-depth", "d", config.DefaultMaxDepth, "maximum primitive composition depth")
	flags.IntVar(&opts.parallelism, "parallelism", 0, "synthesis workers; 0 uses every CPU")

	rootCmd.Flags().StringVarP(&opts.output, "output", "o", stdoutPath, `output file, or "-" for standard output`)
	rootCmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (json, csv, xlsx); inferred from the output extension when empty")

	rootCmd.AddCommand(definitionsCmd(opts))
	rootCmd.AddCommand(primitivesCmd(opts))

	return rootCmd
}

func definitionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "definitions",
		Short: "Print the planned feature definitions without computing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.Context(), cmd, opts, true)
			if err != nil {
				return err
			}
			defs, err := svc.Definitions(cmd.Context(), engineerRequest(cmd, opts))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		},
	}
}

func primitivesCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "primitives",
		Short: "List the available primitives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			list := svc.Primitives()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
			}
			return printPrimitives(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func runFeaturize(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	format, err := outputFormat(opts)
	if err != nil {
		return err
	}

	if opts.output != stdoutPath {
		if err := validation.NewFileValidator(newLogger(cmd, opts)).ValidateOutputFile(opts.output); err != nil {
			return err
		}
	}

	svc, err := newService(ctx, cmd, opts, true)
	if err != nil {
		return err
	}
	result, err := svc.Engineer(ctx, engineerRequest(cmd, opts))
	if err != nil {
		return err
	}

	exp := exporter.New(newLogger(cmd, opts))
	names := result.Schema.Names()
	if opts.output == stdoutPath {
		return exp.Write(ctx, cmd.OutOrStdout(), format, names, result.Records)
	}
	if err := exp.WriteFile(ctx, opts.output, format, names, result.Records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d customers x %d columns to %s\n",
		len(result.Records), len(names), opts.output)
	return nil
}

func outputFormat(opts *options) (exporter.Format, error) {
	if opts.format != "" {
		return exporter.ParseFormat(opts.format)
	}
	if opts.output == stdoutPath {
		return exporter.FormatJSON, nil
	}
	return exporter.FormatForPath(opts.output)
}

func newLogger(cmd *cobra.Command, opts *options) *slog.Logger {
	return infrastructure.NewLogger(cmd.ErrOrStderr(), opts.logLevel, false)
}

// newService builds a feature service from the configuration overlaid with
// flags. Listing primitives needs no dataset, so withData may skip loading.
func newService(ctx context.Context, cmd *cobra.Command, opts *options, withData bool) (*services.FeatureService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, opts)

	if opts.input != "" {
		cfg.Data.Path = opts.input
	}
	if opts.dateLayout != "" {
		cfg.Data.DateLayout = opts.dateLayout
	}
	if opts.holiday != "" {
		cfg.Features.Holiday = opts.holiday
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Features.Parallelism = opts.parallelism
	}

	calendar, err := primitives.NewHolidayCalendar(cfg.Features.Holiday)
	if err != nil {
		return nil, err
	}
	synthesizer := synthesis.NewSynthesizer(primitives.Builtin(calendar), cfg.Features.Parallelism, logger)

	var snapshot *dataset.Snapshot
	if withData {
		if err := validation.NewFileValidator(logger).ValidateDataset(cfg.Data.Path); err != nil {
			return nil, err
		}
		snapshot, err = dataset.Open(ctx, cfg.Data.Path, cfg.Data.DateLayout, logger)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.Data.Path, err)
		}
	}
	return services.NewFeatureService(snapshot, synthesizer, cfg.Features, nil, logger), nil
}

// engineerRequest maps flags onto a request. Flags left unset stay nil so the
// configured defaults apply.
func engineerRequest(cmd *cobra.Command, opts *options) api.EngineerRequest {
	flags := cmd.Flags()
	req := api.EngineerRequest{IgnoreColumns: opts.ignore}
	if flags.Changed("transforms") {
		req.Transforms = nonNil(opts.transforms)
	}
	if flags.Changed("aggregations") {
		req.Aggregations = nonNil(opts.aggregations)
	}
	if flags.Changed("customer-id") {
		req.CustomerIDs = nonNil(opts.customerIDs)
	}
	if flags.Changed("max-depth") {
		depth := opts.maxDepth
		req.MaxDepth = &depth
	}
	return req
}

// nonNil drops blank entries; an explicitly empty flag yields an empty,
// non-nil list.
func nonNil(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func printPrimitives(w io.Writer, list []api.PrimitiveInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tINPUT\tOUTPUT\tDESCRIPTION")
	for _, p := range list {
		out := p.OutputType
		if out == "" {
			out = "same as input"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Name, p.Kind, strings.Join(p.InputTypes, ","), out, p.Description)
	}
	return tw.Flush()
}
