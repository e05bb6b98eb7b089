package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"hackathon-scoreboard/internal/report"
	"hackathon-scoreboard/internal/teams"
)

func (a *app) exportCmd() *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all teams as yaml or csv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var encode func(io.Writer) error
			switch format {
			case "yaml", "yml":
				encode = func(w io.Writer) error { return report.EncodeYAML(w, a.reg.Snapshot()) }
			case "csv":
				encode = a.reg.Save
			default:
				return fmt.Errorf("unknown export format %q (want yaml or csv)", format)
			}
			if path == "" || path == "-" {
				return encode(cmd.OutOrStdout())
			}
			return exportFile(path, encode)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "yaml or csv")
	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <glob>...",
		Short: "Check team record files without loading them",
		Long: `Check every file matching the patterns and report rejected rows.
Patterns support ** (for example "data/**/*.csv").`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"registry": "skip"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			files, bad := 0, 0
			for _, pattern := range args {
				matches, err := doublestar.FilepathGlob(pattern)
				if err != nil {
					return fmt.Errorf("bad pattern %q: %w", pattern, err)
				}
				for _, path := range matches {
					files++
					n, errs, err := checkFile(path)
					if err != nil {
						return err
					}
					if len(errs) == 0 {
						fmt.Fprintf(out, "%s %s (%d teams)\n", a.styles.ok.Render("ok  "), path, n)
						continue
					}
					bad++
					fmt.Fprintf(out, "%s %s (%d teams, %d rejected)\n", a.styles.err.Render("FAIL"), path, n, len(errs))
					for _, e := range errs {
						fmt.Fprintln(out, "     "+a.styles.dim.Render(e.Error()))
					}
				}
			}
			if files == 0 {
				return fmt.Errorf("no files match %v", args)
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d files have rejected rows", bad, files)
			}
			return nil
		},
	}
}

// exportFile writes to path, reporting a failed close as well as a
// failed encode.
func exportFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func checkFile(path string) (int, []teams.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	ts, errs := teams.ParseRecords(f)
	return len(ts), errs, nil
}
