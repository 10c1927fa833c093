package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/querylens/querylens/internal/analytics"
	"github.com/querylens/querylens/internal/analytics/visualization"
	"github.com/querylens/querylens/internal/backend"
	"github.com/querylens/querylens/internal/config"
	"github.com/querylens/querylens/internal/logging"
	"github.com/querylens/querylens/internal/presenter"
	"github.com/querylens/querylens/internal/presenter/terminal"
	"github.com/querylens/querylens/internal/services"
)

type options struct {
	question  string
	views     []string
	recommend string
	search    string
	sort      string
	desc      bool
	page      int
	pageSize  int
	hidden    []string
	maxPoints int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Interpret a query result in the terminal",
		Long: `Render reads a query backend response ({query, results, metadata}) from a
file, or from stdin when the file is "-" or omitted, and prints its metrics,
the selected visualization and the requested views.`,
		Example: `  # Render the chart and table views of a saved response
  render result.json --view chart,table

  # Pipe a response and sort the table by count, descending
  curl -s ... | render --sort count --desc`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			data, err := readSource(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}
			qr, err := analytics.ParseQueryResult(data)
			if err != nil {
				return fmt.Errorf("failed to parse query result: %w", err)
			}
			return render(cmd.Context(), cmd.OutOrStdout(), qr, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.question, "question", "q", "", "Question the result answers, used for titles")
	flags.StringSliceVar(&opts.views, "view", []string{services.ViewChart, services.ViewTable}, "Views to print: table, cards, chart, json")
	flags.StringVar(&opts.recommend, "recommend", "", "Apply a recommended visualization type, e.g. pieChart")
	flags.StringVar(&opts.search, "search", "", "Filter table and card rows")
	flags.StringVar(&opts.sort, "sort", "", "Sort table and card rows by this field")
	flags.BoolVar(&opts.desc, "desc", false, "Sort descending")
	flags.IntVar(&opts.page, "page", 1, "Page to print")
	flags.IntVar(&opts.pageSize, "page-size", 0, "Rows per page (default 10 for tables, 9 for cards)")
	flags.StringSliceVar(&opts.hidden, "hide", nil, "Fields to hide")
	flags.IntVar(&opts.maxPoints, "max-points", 500, "Thin timelines above this many points, 0 disables")

	rootCmd.AddCommand(newAskCmd(opts))
	return rootCmd
}

func newAskCmd(opts *options) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the query backend a question and render the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if opts.question == "" {
				opts.question = question
			}

			client := backend.NewClient(config.BackendConfig{
				BaseURL:       baseURL,
				QueryPath:     "/nlp-query",
				RecommendPath: "/visualization-recommendation",
				Timeout:       timeout,
			}, logging.NewNop())

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			qr, err := client.Query(ctx, question)
			if err != nil {
				return fmt.Errorf("query failed: %s", backend.UserMessage(err))
			}
			return render(cmd.Context(), cmd.OutOrStdout(), qr, opts)
		},
	}

	cmd.Flags().StringVar(&baseURL, "backend", "http://localhost:8000", "Query backend base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}

func readSource(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	return data, nil
}

func render(ctx context.Context, w io.Writer, qr *analytics.QueryResult, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interp := services.NewInterpretService(logging.NewNop(), opts.maxPoints)
	views := services.NewViewService(interp, config.ViewsConfig{
		TablePageSize: presenter.DefaultTablePageSize,
		CardPageSize:  presenter.DefaultCardPageSize,
	})

	var rec *visualization.Recommendation
	if opts.recommend != "" {
		rec = &visualization.Recommendation{VisualizationType: opts.recommend}
	}

	result, err := interp.Interpret(ctx, qr, opts.question, rec)
	if err != nil {
		return err
	}

	if result.Collection != "" {
		_, _ = fmt.Fprintf(w, "%s: %d rows (%s)\n", result.Collection, result.Profile.Rows, result.Profile.Shape)
	}
	terminal.Metrics(w, result.Metrics)
	vis := result.Visualization
	_, _ = fmt.Fprintf(w, "Visualization: %s (%s)\n", vis.Kind, vis.Source)

	state := presenter.State{
		Hidden:   opts.hidden,
		Search:   opts.search,
		SortKey:  opts.sort,
		SortDir:  presenter.SortAsc,
		Page:     opts.page,
		PageSize: opts.pageSize,
	}
	if opts.desc {
		state.SortDir = presenter.SortDesc
	}

	for _, name := range opts.views {
		view, err := views.Render(ctx, qr, opts.question, rec, strings.TrimSpace(name), state)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
		switch v := view.(type) {
		case presenter.TableView:
			terminal.Table(w, v)
		case presenter.CardsView:
			terminal.Cards(w, v)
		case services.ChartView:
			terminal.Chart(w, v.Chart)
		case services.JSONView:
			terminal.JSON(w, v.Results)
		}
	}
	return nil
}
