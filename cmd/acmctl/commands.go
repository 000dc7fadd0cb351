package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/bootstrap"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

type appRunner func(run func(cmd *cobra.Command, app *bootstrap.App, args []string) error) func(*cobra.Command, []string) error

func newServeCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			return app.Serve(cmd.Context())
		}),
	}
}

func newStatsCmd(withApp appRunner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			snap, err := app.Dashboard.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Statistics)
			}

			st := snap.Statistics
			fmt.Fprintln(out, section("Contests", [][2]string{
				{"total", fmt.Sprint(st.Contests.Total)},
				{"this month", fmt.Sprint(st.Contests.ThisMonth)},
				{"solved", fmt.Sprint(st.Contests.TotalSolved)},
				{"average rank", st.Contests.AverageRank},
			}))
			fmt.Fprintln(out, section("Problems", [][2]string{
				{"total", fmt.Sprint(st.Problems.Total)},
				{"solved", fmt.Sprint(st.Problems.Solved)},
				{"pending", fmt.Sprint(st.Problems.Pending)},
				{"failed", fmt.Sprint(st.Problems.Failed)},
				{"unsolved", fmt.Sprint(st.Problems.Unsolved)},
			}))
			if len(st.Problems.Tags) > 0 {
				fmt.Fprintln(out, section("Top tags", countRows(st.Problems.Tags, 8)))
			}
			for source, msg := range snap.Errors {
				printWarning(cmd.ErrOrStderr(), fmt.Errorf("%s: %s", source, msg))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw statistics as JSON")
	return cmd
}

func newSearchCmd(withApp appRunner) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search contests and problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			results := app.Search.Search(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s %s  %s\n",
					labelStyle.Render(r.Type),
					valueStyle.Render(r.Title),
					r.Subtitle)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results to print")
	return cmd
}

func newExportCmd(withApp appRunner) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export contests|problems",
		Short:     "Export one collection as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"contests", "problems"},
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			doc, err := app.Data.Export(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(doc.Body)
				return err
			}
			if output == "." {
				output = doc.FileName
			}
			if err := os.WriteFile(output, doc.Body, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `file to write; "." uses the dated default name`)
	return cmd
}

func newImportCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an exported or backup file into the libraries",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			report, err := app.ImportFile(cmd.Context(), args[0])
			if err != nil && !common.IsSavedInSessionOnly(err) {
				return err
			}
			var rows [][2]string
			if report.Contests != nil {
				rows = append(rows, [2]string{"contests", importLine(*report.Contests)})
			}
			if report.Problems != nil {
				rows = append(rows, [2]string{"problems", importLine(*report.Problems)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), section("Import", rows))
			if err != nil {
				printWarning(cmd.ErrOrStderr(), err)
			}
			return nil
		}),
	}
}

func importLine(r model.ImportResult) string {
	return fmt.Sprintf("%d added, %d total", r.AddedCount, r.TotalCount)
}

func newBackupCmd(withApp appRunner) *cobra.Command {
	var (
		backupType string
		dir        string
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup file",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			if dir == "" {
				dir = app.Config.BackupDir
			}
			path, err := app.Data.WriteBackup(dir, backupType)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&backupType, "type", storage.BackupManual, "backup type recorded in the file")
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default BACKUP_DIR)")
	return cmd
}

func newGenerateCmd(withApp appRunner) *cobra.Command {
	var (
		in      repository.ContestInput
		count   int
		preview bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a contest with generated problems",
		Long:  "Create a contest and its lettered problems. With --preview nothing is stored.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			out := cmd.OutOrStdout()
			if preview {
				p, err := app.Generator.Preview(model.Contest{
					Name: in.Name, Platform: in.Platform, Date: in.Date, URL: in.URL,
				}, count)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, section(p.Summary.ContestName, [][2]string{
					{"platform", p.Summary.Platform},
					{"prefix", p.Summary.ContestPrefix},
					{"problems", fmt.Sprint(p.Summary.ProblemCount)},
				}))
				for _, pp := range p.Problems {
					fmt.Fprintf(out, "%s %s  %s\n", labelStyle.Render(pp.Letter), valueStyle.Render(pp.ID), pp.URL)
				}
				return nil
			}

			in.TotalProblems = count
			res, err := app.ContestSvc.CreateContest(cmd.Context(), service.CreateContestRequest{
				ContestInput:     in,
				GenerateProblems: count,
			})
			if err != nil && !common.IsSavedInSessionOnly(err) {
				return err
			}
			fmt.Fprintln(out, section(res.Contest.Name, [][2]string{
				{"id", res.Contest.ID},
				{"generated", fmt.Sprint(len(res.Generated))},
			}))
			if res.Warning != "" {
				printWarning(cmd.ErrOrStderr(), errors.New(res.Warning))
			}
			if err != nil {
				printWarning(cmd.ErrOrStderr(), err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "contest name")
	cmd.Flags().StringVar(&in.Platform, "platform", "", "contest platform")
	cmd.Flags().StringVar(&in.Date, "date", "", "contest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.URL, "url", "", "contest URL")
	cmd.Flags().IntVar(&count, "count", 5, "number of problems")
	cmd.Flags().BoolVar(&preview, "preview", false, "show the generated problems without storing anything")
	return cmd
}
