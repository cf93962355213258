package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetload/internal/application"
	"github.com/JonMunkholm/sheetload/internal/config"
	"github.com/JonMunkholm/sheetload/internal/core"
	"github.com/JonMunkholm/sheetload/internal/core/tables"
	"github.com/JonMunkholm/sheetload/internal/logging"
)

var (
	catalogFile string
	tableKey    string
	groupName   string
	uploadsDir  string
	previewRows int
	jsonOutput  bool
	quiet       bool
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAA00")).Padding(0, 1)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "sheetload",
		Short:         "Load CSV and Excel files against the table catalog",
		Long:          "Decode CSV, XLSX and XLS files, preview their first rows, and run the simulated batch pass for a catalog table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "table catalog YAML (default: built-in, or CATALOG_PATH)")

	var tablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "List the catalog tables",
		Args:  cobra.NoArgs,
		RunE:  runTables,
	}
	tablesCmd.Flags().StringVar(&groupName, "group", "", "only list tables of this group")
	tablesCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")

	var previewCmd = &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the first rows of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
	previewCmd.Flags().StringVar(&tableKey, "table", "", "compare the header with this table")
	previewCmd.Flags().IntVar(&previewRows, "rows", 0, "rows to show (default: PREVIEW_ROWS)")

	var processCmd = &cobra.Command{
		Use:   "process FILE",
		Short: "Run the batch pass for a file and print the sample SQL",
		Args:  cobra.ExactArgs(1),
		RunE:  runProcess,
	}
	processCmd.Flags().StringVar(&tableKey, "table", "", "target table key")
	processCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	processCmd.Flags().BoolVar(&quiet, "quiet", false, "no progress bar")
	processCmd.MarkFlagRequired("table")

	var menuCmd = &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE:  runMenu,
	}
	menuCmd.Flags().StringVar(&uploadsDir, "dir", application.DefaultUploadsDir, "directory with files to load")

	rootCmd.AddCommand(tablesCmd, previewCmd, processCmd, menuCmd)

	if err := rootCmd.Execute(); err != nil {
		msg := err.Error()
		if core.IsUserFacing(err) {
			msg = core.FormatUserError(err)
		}
		fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Render("Error: "+msg))
		os.Exit(1)
	}
}

// setup loads .env and the configuration, points logging at w and applies
// the catalog override.
func setup(w io.Writer) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(w, cfg.Logging.Level, cfg.Logging.Format)

	path := catalogFile
	if path == "" {
		path = cfg.Catalog.Path
	}
	if path != "" {
		if err := tables.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newService(cfg *config.Config) *core.Service {
	opts := core.OptionsFromConfig(cfg)
	if previewRows > 0 {
		opts.PreviewRows = previewRows
	}
	return core.NewService(opts)
}

func runTables(cmd *cobra.Command, args []string) error {
	if _, err := setup(os.Stderr); err != nil {
		return err
	}

	var defs []core.TableDefinition
	if groupName != "" {
		defs = core.ByGroup(groupName)
	} else {
		defs = core.All()
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		infos := make([]core.TableInfo, len(defs))
		for i, d := range defs {
			infos[i] = d.Info
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TABLE", "GROUP", "LABEL", "COLUMNS", "SAMPLE").
		StyleFunc(cellStyle)
	for _, d := range defs {
		sample := "no"
		if d.HasSample() {
			sample = "yes"
		}
		t.Row(d.Info.Key, d.Info.Group, d.Info.Label, fmt.Sprint(len(d.Info.Columns)), sample)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func cellStyle(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return lipgloss.NewStyle().Padding(0, 1)
}

// loadFile decodes path into a new session and returns the session ID.
func loadFile(ctx context.Context, svc *core.Service, path string) (string, *core.LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, err
	}

	sid := svc.NewSession()
	res, err := svc.LoadFile(ctx, sid, filepath.Base(path), f, info.Size())
	return sid, res, err
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	svc := newService(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sid, res, err := loadFile(ctx, svc, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, application.RenderStatus(res.Status))
	fmt.Fprintln(out, application.RenderPreview(res.Preview))

	if tableKey != "" {
		sel, err := svc.SelectTable(sid, tableKey)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, application.RenderStatus(sel.Status))
		fmt.Fprintln(out, application.RenderCoverage(sel.Coverage))
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	svc := newService(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sid, _, err := loadFile(ctx, svc, args[0])
	if err != nil {
		return err
	}

	runID, err := svc.StartRun(ctx, sid, tableKey)
	if err != nil {
		return err
	}

	updates, err := svc.SubscribeProgress(sid, runID)
	if err != nil {
		return err
	}

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	errOut := cmd.ErrOrStderr()
	start := time.Now()
	interrupted := ctx.Done()
follow:
	for {
		select {
		case p, ok := <-updates:
			if !ok {
				break follow
			}
			if !quiet && !jsonOutput {
				fmt.Fprintf(errOut, "\r%s %s", bar.ViewAs(p.Percent()/100), application.RenderStats(p))
			}
		case <-interrupted:
			// The run closes updates once it has stopped.
			_ = svc.CancelRun(sid, runID)
			interrupted = nil
		}
	}
	if !quiet && !jsonOutput {
		fmt.Fprintln(errOut)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.RunResult(waitCtx, sid, runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*core.RunResult
			Seconds string `json:"seconds"`
		}{res, res.DurationSeconds()})
	}

	fmt.Fprintln(out, application.RenderResult(res))
	if res.SQL != "" {
		fmt.Fprintln(out, application.RenderStatus(core.StatusMessage{Kind: core.StatusInfo, Text: core.MsgSampleSQL, Detail: res.SQL}))
	}
	if res.Phase != core.PhaseComplete {
		return fmt.Errorf("run %s after %s", res.Phase, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func runMenu(cmd *cobra.Command, args []string) error {
	cfg, err := setup(io.Discard)
	if err != nil {
		return err
	}

	dir, err := application.UploadsRoot(uploadsDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	return application.Run(ctx, newService(cfg), dir)
}
