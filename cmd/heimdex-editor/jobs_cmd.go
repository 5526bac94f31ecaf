package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/jobs"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent export and snapshot jobs",
	RunE:  runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "number of jobs to show")
}

func runJobs(cmd *cobra.Command, args []string) error {
	_, _, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	repo := jobs.NewRepository(database.Conn())
	list, err := repo.ListJobs(context.Background(), jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	return printJobs(cmd.OutOrStdout(), list, time.Now())
}

var (
	jobsHeaderStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	jobsCellStyle   = lipgloss.NewStyle().PaddingRight(2)

	jobStatusColors = map[string]lipgloss.Color{
		jobs.StatusPending:   lipgloss.Color("242"),
		jobs.StatusRunning:   lipgloss.Color("39"),
		jobs.StatusCompleted: lipgloss.Color("42"),
		jobs.StatusFailed:    lipgloss.Color("196"),
	}
)

func printJobs(w io.Writer, list []*jobs.Job, now time.Time) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no jobs")
		return err
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers("ID", "TYPE", "STATUS", "OUTPUT", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return jobsHeaderStyle
			}
			if col == 2 && row >= 0 && row < len(list) {
				return jobsCellStyle.Foreground(jobStatusColors[list[row].Status])
			}
			return jobsCellStyle
		})

	for _, j := range list {
		status := j.Status
		if j.Status == jobs.StatusRunning {
			status = fmt.Sprintf("%s %d%%", j.Status, j.Progress)
		}
		if j.Error != "" {
			status += ": " + j.Error
		}
		output := "-"
		switch {
		case j.Location != "" && j.Location != j.OutputPath:
			output = j.Location
		case j.OutputPath != "":
			output = filepath.Base(j.OutputPath)
		}
		t.Row(j.ID[:8], j.Type, status, output, humanize.RelTime(j.CreatedAt, now, "ago", "from now"))
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
