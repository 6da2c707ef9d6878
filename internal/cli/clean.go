package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/renderer"
)

// cleanCommand removes rendered artifacts from the output directory.
func (c *CLI) cleanCommand() *cobra.Command {
	var (
		configPath string
		outputDir  string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove rendered images from the output directory",
		Long: `Remove every rendered artifact (files with a renderer's extension) from the
output directory and prune the directories left empty. References are never
touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			dir := cfg.OutputDir
			if cmd.Flags().Changed("output-dir") {
				dir = outputDir
			}
			if err := errors.ValidateDir("output", dir); err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Nothing to clean")
				return nil
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			removed, err := cleanArtifacts(dir, dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				for _, path := range removed {
					printFile(path)
				}
				printInfo("Would remove %d artifacts", len(removed))
				return nil
			}
			prog.done(fmt.Sprintf("Removed %d artifacts", len(removed)))
			printSuccess("Removed %d artifacts", len(removed))
			printDetail("Directory: %s", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default "+defaultConfigFile+" if present)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory to clean")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "list what would be removed")

	return cmd
}

// artifactExts returns the file extensions written by the compiled-in
// renderers, e.g. ".png".
func artifactExts() []string {
	var exts []string
	for _, k := range renderer.Available() {
		r, err := renderer.New(k)
		if err != nil {
			continue
		}
		if ext := r.Ext(); !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return exts
}

// cleanArtifacts removes every artifact under dir and then the directories
// left empty. It returns the removed (or, for a dry run, matching) paths.
// Files that cannot be removed are skipped.
func cleanArtifacts(dir string, dryRun bool) ([]string, error) {
	exts := artifactExts()
	var removed, dirs []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path == dir {
			return nil
		}
		if info.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		if !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if dryRun {
			removed = append(removed, path)
			return nil
		}
		if err := os.Remove(path); err == nil {
			removed = append(removed, path)
		}
		return nil
	})
	if err != nil {
		return removed, errors.Wrap(errors.ErrCodeInvalidPath, err, "clean %s", dir)
	}
	if dryRun {
		return removed, nil
	}

	// Deepest first so parents empty out before they are tried.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		_ = os.Remove(d)
	}
	return removed, nil
}
