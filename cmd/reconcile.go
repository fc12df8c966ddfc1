package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"locafix/core/utils"
	"locafix/feature/runs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Flags for the reconcile command
	originalPath string
	modifiedPath string
	searchDir    string
	recursive    bool
	noBackup     bool
	dryRun       bool
	yesConfirm   bool
)

// reconcileCmd reverts spurious version bumps in a modified catalog and its references.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Revert version bumps of unchanged catalog entries and patch references",
	Long: `Compare the original and the modified catalog. Entries whose version changed
while their text stayed byte-identical are removed from the modified catalog, and
every file under --dir referencing them gets the original version back.

Examples:
  # Analyze only
  locafix reconcile --original english.orig.xml --modified english.xml --dir ./Mods --dry-run

  # Apply with interactive confirmation
  locafix reconcile --original english.orig.xml --modified english.xml --dir ./Mods

  # Apply without prompting and without backups
  locafix reconcile --original a.xml --modified b.xml --dir ./Mods --yes --no-backup`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&originalPath, "original", "", "Original catalog (reference versions)")
	reconcileCmd.Flags().StringVar(&modifiedPath, "modified", "", "Modified catalog (rewritten in place)")
	reconcileCmd.Flags().StringVar(&searchDir, "dir", "", "Directory whose files reference the catalog")
	reconcileCmd.Flags().BoolVar(&recursive, "recursive", true, "Descend into subdirectories of --dir")
	reconcileCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not write .backup copies before modifying files")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze only; no file is written")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm modifications (non-interactive)")
	_ = reconcileCmd.MarkFlagRequired("original")
	_ = reconcileCmd.MarkFlagRequired("modified")
	_ = reconcileCmd.MarkFlagRequired("dir")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := runs.ReconcileRequest{
		Original: originalPath,
		Modified: modifiedPath,
		Dir:      searchDir,
		NoBackup: noBackup,
		DryRun:   dryRun,
	}
	if cmd.Flags().Changed("recursive") {
		req.Recursive = &recursive
	}

	if err := req.ValidatePaths(); err != nil {
		return err
	}
	if !dryRun {
		if !confirmModification(req) {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		req.Confirmed = true
	}

	run, err := a.service.Reconcile(ctx, req, newTerminalReporter("Reconciling"))
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	result, _ := run.Result()
	summary, _ := result.(*runs.ReconcileSummary)
	printReconcileSummary(a.logger, run.Snapshot(), summary)
	return nil
}

// printReconcileSummary prints the result table and logs the error files.
func printReconcileSummary(l *zap.Logger, snap runs.Snapshot, s *runs.ReconcileSummary) {
	if s == nil {
		s = &runs.ReconcileSummary{}
	}
	title := cases.Title(language.Und)

	fmt.Println(keyValueTable([][2]string{
		{"State", title.String(string(snap.State))},
		{"Nodes deleted", strconv.Itoa(s.NodesDeleted)},
		{"Replacements", strconv.Itoa(s.Replacements)},
		{"Kept (text changed)", strconv.Itoa(s.Kept)},
		{"Files scanned", strconv.Itoa(s.TotalScanned)},
		{"Files modified", strconv.Itoa(s.FilesModified)},
		{"Files skipped", strconv.Itoa(s.FilesSkipped)},
		{"Files with errors", strconv.Itoa(s.FilesErrored)},
		{"Backups written", strconv.Itoa(s.Backups)},
	}))

	for _, path := range s.ErrorFiles {
		l.Warn("File could not be processed", zap.String("path", path))
	}
	if s.DryRun {
		l.Info("Dry-run mode: No changes were made.")
	}
}

// confirmModification prompts the user for confirmation or uses --yes flag.
func confirmModification(req runs.ReconcileRequest) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	backups := "with"
	if req.NoBackup {
		backups = "WITHOUT"
	}
	fmt.Printf("\nThis rewrites %s and files under %s %s backups.\n", req.Modified, req.Dir, backups)
	fmt.Print("⚠️  Type 'yes' to confirm: ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return utils.ToBool(response)
}
