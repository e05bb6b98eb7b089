package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/report"
	"hackathon-scoreboard/internal/scoring"
)

func (a *app) leaderboardCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank teams by overall score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.styles.printTeams(cmd.OutOrStdout(), a.reg.Leaderboard(category), true)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", scoring.FilterAll, "Category to rank, or All")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show summary statistics and the score frequency table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := report.Summarize(a.reg)

			fmt.Fprintln(out, a.styles.header.Render("Summary"))
			fmt.Fprintf(out, "  Total teams:   %d\n", s.Total)
			fmt.Fprintf(out, "  Average score: %.2f\n", s.Average)
			fmt.Fprintf(out, "  Minimum score: %.2f\n", s.Min)
			fmt.Fprintf(out, "  Maximum score: %.2f\n", s.Max)
			if s.Highest != nil {
				fmt.Fprintf(out, "  Top team:      %s\n", a.styles.top.Render(s.Highest.ShortDetails()))
			} else {
				fmt.Fprintln(out, "  Top team:      "+a.styles.dim.Render("No teams available."))
			}

			fmt.Fprintln(out, a.styles.header.Render("Score frequency"))
			for score, n := range s.Frequency {
				fmt.Fprintf(out, "  %d: %d\n", score, n)
			}
			return nil
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the final report file, or print it with --out -",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "-" {
				if err := a.role.Check(auth.ViewReport); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Build(a.reg))
				return nil
			}
			if err := a.role.Check(auth.SaveReport); err != nil {
				return err
			}
			if path == "" {
				path = a.cfg.Report.Path
			}
			if err := report.WriteFile(path, a.reg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.styles.ok.Render("Report saved to "+path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file (default report.path, - for stdout)")
	return cmd
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the known categories and their scoring policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, c := range scoring.Categories() {
				fmt.Fprintf(out, "%d  %-25s %-20s %s\n", c.ID, c.Name, c.Kind, a.styles.dim.Render(c.Description))
			}
			return nil
		},
	}
}
