package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/analyzer"
	"github.com/rcliao/paper-digest/internal/batch"
	"github.com/rcliao/paper-digest/internal/collection"
	"github.com/rcliao/paper-digest/internal/config"
	"github.com/rcliao/paper-digest/internal/extract"
	"github.com/rcliao/paper-digest/internal/llm"
	"github.com/rcliao/paper-digest/internal/model"
	"github.com/rcliao/paper-digest/internal/report"
	"github.com/rcliao/paper-digest/internal/store"
)

// exitInterrupted is the exit code after Ctrl-C.
const exitInterrupted = 130

func init() {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze papers and export CSV reports",
		Long: "Analyze the papers of the selected collections (or the whole library) and write CSV reports.\n" +
			"Collections may be given by key or by name. Ctrl-C stops after the current paper and still exports.",
		Run: runAnalyze,
	}

	cmd.Flags().StringSliceP("collection", "c", nil, "Collection key or name (repeatable)")
	cmd.Flags().Bool("all", false, "Analyze the whole library, ignoring selected_collections")
	cmd.Flags().IntP("limit", "l", 0, "Max papers (0 = no limit)")
	cmd.Flags().StringSlice("types", nil, "Only these item types (comma-separated)")
	cmd.Flags().StringSlice("exclude", nil, "Skip titles containing these keywords (comma-separated)")
	cmd.Flags().Float64("delay", 0, "Seconds to wait between papers")
	cmd.Flags().Int("max-pages", 0, "Max PDF pages to read")
	cmd.Flags().Int("max-tokens", 0, "Token budget for the paper text")
	cmd.Flags().String("model", "", "Model name")
	cmd.Flags().String("provider", "", "Provider: openai or ollama")
	cmd.Flags().String("base-url", "", "API base URL")
	cmd.Flags().String("language", "", "Output language")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().Bool("detailed", false, "Also write the detailed report")
	cmd.Flags().Bool("statistics", true, "Also write the statistics report")
	cmd.Flags().Bool("dry-run", false, "List the papers that would be analyzed and exit")

	RootCmd.AddCommand(cmd)
}

// applyAnalyzeFlags layers explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, base *config.Config) *config.Config {
	f := cmd.Flags()
	overlay := &config.Config{}
	overlay.SelectedCollections, _ = f.GetStringSlice("collection")
	overlay.Limit, _ = f.GetInt("limit")
	overlay.IncludeTypes, _ = f.GetStringSlice("types")
	overlay.ExcludeKeywords, _ = f.GetStringSlice("exclude")
	overlay.MaxPages, _ = f.GetInt("max-pages")
	overlay.MaxTokens, _ = f.GetInt("max-tokens")
	overlay.Model, _ = f.GetString("model")
	overlay.Provider, _ = f.GetString("provider")
	overlay.BaseURL, _ = f.GetString("base-url")
	overlay.Language, _ = f.GetString("language")
	overlay.OutputDir, _ = f.GetString("output")

	out := config.Merge(base, overlay)
	if f.Changed("delay") {
		out.Delay, _ = f.GetFloat64("delay")
	}
	if f.Changed("detailed") {
		out.ExportDetailed, _ = f.GetBool("detailed")
	}
	if f.Changed("statistics") {
		out.ExportStatistics, _ = f.GetBool("statistics")
	}
	if all, _ := f.GetBool("all"); all {
		out.SelectedCollections = nil
	}
	return out
}

func runAnalyze(cmd *cobra.Command, args []string) {
	run := applyAnalyzeFlags(cmd, cfg)
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if !dryRun {
		if err := run.Validate(); err != nil {
			exitErr("config", err)
		}
	}

	dbFile, err := getDBPath()
	if err != nil {
		exitErr("locate database", err)
	}
	s, err := store.Open(dbFile)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	resolver, err := collection.Load(ctx, s, logger)
	if err != nil {
		exitErr("load collections", err)
	}

	keys, err := selectCollections(resolver, run.SelectedCollections)
	if err != nil {
		exitErr("select collections", err)
	}

	var records []model.Record
	if len(keys) > 0 {
		records, err = resolver.ItemsIn(ctx, keys)
	} else {
		records, err = s.Items(ctx)
	}
	if err != nil {
		exitErr("load items", err)
	}
	records = batch.Filter(records, batch.FilterOptions{
		IncludeTypes:    run.IncludeTypes,
		ExcludeKeywords: run.ExcludeKeywords,
		Limit:           run.Limit,
	})

	if dryRun {
		printRecordList(ctx, resolver, records)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no papers match the selection")
		return
	}

	runID := ulid.Make().String()
	log := logger.With(zap.String("run_id", runID))
	log.Info("starting analysis",
		zap.Int("papers", len(records)),
		zap.Strings("collections", resolver.Names(keys)),
		zap.String("model", run.Model),
		zap.String("language", run.Language))

	client, err := llm.New(llm.Options{Provider: run.Provider, BaseURL: run.BaseURL, APIKey: run.APIKey})
	if err != nil {
		exitErr("llm client", err)
	}
	pipeline := analyzer.New(client, extract.NewPDFExtractor(log), resolver, analyzer.Options{
		Model:     run.Model,
		Language:  run.Language,
		DataDir:   getDataDir(dbFile),
		MaxPages:  run.MaxPages,
		MaxTokens: run.MaxTokens,
	}, log)

	runner := batch.NewRunner(pipeline, log)
	runner.Delay = run.DelayDuration()
	runner.Labels = resolver
	runner.OnProgress = func(done, total int, res model.AnalysisResult) {
		log.Info("paper done",
			zap.Int("done", done), zap.Int("total", total),
			zap.String("title", res.Title), zap.Bool("ok", res.Succeeded()))
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	results := runner.Run(sigCtx, records)
	interrupted := sigCtx.Err() != nil
	stop()

	var files []string
	if len(results) > 0 {
		w := report.NewWriter(run.OutputDir, log)
		files, err = w.Export(results, report.Options{
			CollectionNames: resolver.Names(keys),
			RunID:           runID,
			Statistics:      run.ExportStatistics,
			Detailed:        run.ExportDetailed,
		})
		if err != nil {
			exitErr("export", err)
		}
	}

	if err := config.SaveRecent(config.Dir(), run); err != nil {
		log.Warn("could not save recent config", zap.Error(err))
	}

	sum := report.Summarize(results)
	printJSON(map[string]any{
		"run_id":       runID,
		"selected":     len(records),
		"processed":    sum.Total,
		"succeeded":    sum.Succeeded,
		"failed":       sum.Failed,
		"success_rate": sum.SuccessRate(),
		"files":        files,
		"interrupted":  interrupted,
	})

	if interrupted {
		s.Close()
		_ = logger.Sync()
		os.Exit(exitInterrupted)
	}
}

// selectCollections maps keys or case-insensitive names to collection keys.
// A name shared by several collections selects all of them.
func selectCollections(r *collection.Resolver, selection []string) ([]string, error) {
	var keys []string
	seen := map[string]bool{}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, sel := range selection {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if c := r.Get(sel); c != nil {
			add(c.Key)
			continue
		}
		found := false
		for _, c := range r.All() {
			if strings.EqualFold(c.Name, sel) {
				add(c.Key)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown collection %q", sel)
		}
	}
	return keys, nil
}

func printRecordList(ctx context.Context, r *collection.Resolver, records []model.Record) {
	type row struct {
		Key        string `json:"key"`
		Type       string `json:"type"`
		Title      string `json:"title"`
		Authors    string `json:"authors"`
		Collection string `json:"collection"`
		HasPDF     bool   `json:"has_pdf"`
	}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		hasPDF := false
		for _, a := range rec.Attachments {
			hasPDF = hasPDF || a.IsPDF()
		}
		rows = append(rows, row{
			Key:        rec.Key,
			Type:       rec.TypeName,
			Title:      rec.Title,
			Authors:    model.FormatAuthors(rec.Creators),
			Collection: r.CollectionLabel(ctx, rec.Key),
			HasPDF:     hasPDF,
		})
	}

	if textOutput() {
		for _, x := range rows {
			pdf := " "
			if x.HasPDF {
				pdf = "*"
			}
			fmt.Printf("%s %s  %s  [%s]\n", pdf, x.Key, x.Title, x.Collection)
		}
		return
	}
	printJSON(rows)
}
