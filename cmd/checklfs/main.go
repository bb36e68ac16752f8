package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/checklfs/internal/config"
	"github.com/yuya-takeyama/checklfs/internal/gitrepo"
	"github.com/yuya-takeyama/checklfs/internal/logging"
	"github.com/yuya-takeyama/checklfs/internal/treecheck"
	"github.com/yuya-takeyama/checklfs/internal/walker"
	"github.com/yuya-takeyama/checklfs/pkg/attributes"
	"github.com/yuya-takeyama/checklfs/pkg/logger"
	"github.com/yuya-takeyama/checklfs/pkg/report"
	"github.com/yuya-takeyama/checklfs/pkg/scanner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	excludes          []string
	concurrency       int
	storeRoot         string
	noAttributes      bool
	includeNotTracked bool
	verbose           bool
	quiet             bool
	resultJSONFile    string
	revision          string
)

// TreeResult is written by the tree command
type TreeResult struct {
	Report   *report.Report      `json:"report"`
	Findings []treecheck.Finding `json:"findings"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "checklfs [path]",
		Short: "Verify Git LFS pointers against the local object store",
		Long: `checklfs finds every Git LFS pointer in a working tree and checks that the
object it references exists in the local store with the declared size and
SHA-256 digest.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:         cobra.MaximumNArgs(1),
		RunE:         runScan,
		SilenceUsage: true,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Verify the pointers of a working tree (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	treeCmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Verify the pointers of a commit and check its tree for LFS mistakes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTree,
	}
	treeCmd.Flags().StringVar(&revision, "commit", "HEAD", "Commit to check")

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	flags.IntVar(&concurrency, "concurrency", scanner.DefaultConcurrency, "Number of concurrent verifications")
	flags.StringVar(&storeRoot, "store", "", "LFS object store (defaults to the repository's lfs/objects)")
	flags.BoolVar(&noAttributes, "no-attributes", false, "Treat every file as a candidate instead of only filter=lfs paths")
	flags.BoolVar(&includeNotTracked, "include-not-tracked", false, "Record files that are not pointers in the result")
	flags.BoolVar(&verbose, "verbose", false, "Log every file")
	flags.BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	flags.StringVar(&resultJSONFile, "result-json-file", "", "Path to output result as JSON file")

	rootCmd.AddCommand(scanCmd, treeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// settings merges .checklfs.yaml with the command line; flags win.
type settings struct {
	excludes          []string
	concurrency       int
	storeRoot         string
	useAttributes     bool
	includeNotTracked bool
}

func loadSettings(cmd *cobra.Command, root string) (settings, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		excludes:          append(cfg.Exclude, excludes...),
		concurrency:       concurrency,
		storeRoot:         cfg.Store,
		useAttributes:     cfg.UseAttributes() && !noAttributes,
		includeNotTracked: cfg.IncludeNotTracked || includeNotTracked,
	}
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency > 0 {
		s.concurrency = cfg.Concurrency
	}
	if storeRoot != "" {
		s.storeRoot = storeRoot
	}
	return s, nil
}

func progressLogger() logger.Logger {
	switch {
	case verbose:
		return &logger.VerboseLogger{}
	case quiet:
		return &logger.QuietLogger{Out: os.Stderr}
	default:
		return &logger.NullLogger{}
	}
}

func targetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logging.NewLogger(quiet)
	start := time.Now()

	root := targetPath(args)
	gitDir := ""
	repo, err := gitrepo.Open(root)
	switch {
	case err == nil:
		if repo.WorkTree == "" {
			return fmt.Errorf("%s is a bare repository, use the tree command", repo.GitDir)
		}
		root, gitDir = repo.WorkTree, repo.GitDir
	case errors.Is(err, gitrepo.ErrNotRepository) && storeRoot != "":
		// a plain directory can still be checked against an explicit store
	default:
		return err
	}

	s, err := loadSettings(cmd, root)
	if err != nil {
		return err
	}
	if s.storeRoot == "" && repo != nil {
		s.storeRoot = repo.LFSDir
	}

	var filter walker.Filter = walker.AlwaysCandidate{}
	if s.useAttributes {
		attrs, err := attributes.LoadWorktree(root, gitDir)
		if err != nil {
			return err
		}
		// without any filter=lfs rule the pointer format alone decides
		if !attrs.Empty() {
			filter = walker.PatternFiltered{Matcher: attrs}
		}
	}

	log.Debug("scanning %s against %s", root, s.storeRoot)
	rep, err := scanner.Scan(ctx, scanner.Options{
		Root:              root,
		StoreRoot:         s.storeRoot,
		Excludes:          s.excludes,
		Filter:            filter,
		Concurrency:       s.concurrency,
		IncludeNotTracked: s.includeNotTracked,
		Logger:            progressLogger(),
	})
	if err != nil {
		return err
	}

	if resultJSONFile != "" {
		if err := rep.WriteJSONFile(resultJSONFile); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if !quiet {
		log.PrintFailures(rep)
	}
	log.PrintSummary(rep, 0, time.Since(start))

	if !rep.Passed {
		return fmt.Errorf("%d of %d pointers failed verification", rep.Summary.Failed(), len(rep.Entries))
	}
	return nil
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logging.NewLogger(quiet)
	start := time.Now()

	repo, err := gitrepo.Open(targetPath(args))
	if err != nil {
		return err
	}

	settingsRoot := repo.WorkTree
	if settingsRoot == "" {
		settingsRoot = repo.GitDir
	}
	s, err := loadSettings(cmd, settingsRoot)
	if err != nil {
		return err
	}

	log.Debug("checking %s of %s", revision, repo.GitDir)
	rep, findings, err := treecheck.Check(ctx, repo, treecheck.Options{
		Revision:          revision,
		StoreRoot:         s.storeRoot,
		Excludes:          s.excludes,
		Concurrency:       s.concurrency,
		IncludeNotTracked: s.includeNotTracked,
		Logger:            progressLogger(),
	})
	if err != nil {
		return err
	}

	if resultJSONFile != "" {
		if err := writeTreeResult(resultJSONFile, TreeResult{Report: rep, Findings: findings}); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	for _, f := range findings {
		log.Error("%s", f)
	}
	if !quiet {
		log.PrintFailures(rep)
	}
	log.PrintSummary(rep, len(findings), time.Since(start))

	if !rep.Passed || len(findings) > 0 {
		return fmt.Errorf("%d pointers failed verification, %d tree findings", rep.Summary.Failed(), len(findings))
	}
	return nil
}

func writeTreeResult(path string, result TreeResult) error {
	if result.Findings == nil {
		result.Findings = []treecheck.Finding{}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
