package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"locafix/feature/convert"
	"locafix/feature/runs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Flags for the convert command
	convertDir     string
	convertTo      string
	convertRecurse bool
	deleteOriginal bool
)

// convertCmd batch-converts resources through the external tool.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert lsx resources to lsj (or back) with the external tool",
	Long: `Convert every resource under --dir to the target format by running the
configured conversion tool once per file. meta.lsx and meta.lsj are never converted.

Examples:
  locafix convert --dir ./Mods --to lsj
  locafix convert --dir ./Mods --to lsx --delete-original`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertDir, "dir", "", "Directory to convert")
	convertCmd.Flags().StringVar(&convertTo, "to", string(convert.FormatLSJ), "Target format (lsj or lsx)")
	convertCmd.Flags().BoolVar(&convertRecurse, "recursive", true, "Descend into subdirectories of --dir")
	convertCmd.Flags().BoolVar(&deleteOriginal, "delete-original", false, "Delete each source file after a successful conversion")
	_ = convertCmd.MarkFlagRequired("dir")

	RootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := runs.ConvertRequest{
		Dir:            convertDir,
		To:             convertTo,
		DeleteOriginal: deleteOriginal || a.cfg.Convert.DeleteOriginal,
	}
	if cmd.Flags().Changed("recursive") {
		req.Recursive = &convertRecurse
	}

	run, err := a.service.Convert(ctx, req, newTerminalReporter("Converting"))
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	result, _ := run.Result()
	summary, _ := result.(*convert.Summary)
	if summary == nil {
		summary = &convert.Summary{}
	}

	title := cases.Title(language.Und)
	fmt.Println(keyValueTable([][2]string{
		{"State", title.String(string(run.Snapshot().State))},
		{"Files scanned", strconv.Itoa(summary.TotalScanned)},
		{"Converted", strconv.Itoa(summary.ConvertedFiles)},
		{"Skipped", strconv.Itoa(summary.SkippedFiles)},
		{"Errors", strconv.Itoa(len(summary.ErrorFiles))},
	}))
	for _, path := range summary.ErrorFiles {
		a.logger.Warn("File could not be converted", zap.String("path", path))
	}
	return nil
}
