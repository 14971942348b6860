package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/loaneye/internal/api/client"
	"github.com/loaneye/internal/models"
)

func NewAlertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alert",
		Short:   "Browse early-warning alerts",
		Aliases: []string{"alerts", "a"},
	}

	cmd.AddCommand(newAlertListCommand())
	cmd.AddCommand(newAlertDetailsCommand())

	return cmd
}

func newAlertListCommand() *cobra.Command {
	var (
		q       client.AlertQuery
		signals []int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List alerts matching the filters",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			q.Signals = signals
			list, err := c.ListAlerts(q)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSIGNAL\tBORROWER\tPORTFOLIO\tEVENT\tALERT\tSEVERITY\tSTATUS")
			for _, a := range list.Alerts {
				fmt.Fprintf(w, "%s\t%d %s\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
					a.AlertID,
					a.SignalCode, a.SignalName,
					a.BorrowerID, a.BorrowerName,
					a.Portfolio,
					formatDate(a.EventDate),
					formatDate(a.AlertDate),
					a.Severity,
					a.CaseStatus,
				)
			}
			fmt.Fprintf(w, "\n%d alert(s)\n", list.Total)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&q.EventFrom, "event-from", "", "Earliest event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.EventTo, "event-to", "", "Latest event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.AlertFrom, "alert-from", "", "Earliest alert date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.AlertTo, "alert-to", "", "Latest alert date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&q.Portfolios, "portfolio", nil, "Portfolio (repeatable)")
	cmd.Flags().IntSliceVar(&signals, "signal", nil, "Signal code (repeatable)")
	cmd.Flags().StringSliceVar(&q.Borrowers, "borrower", nil, "Borrower id (repeatable)")

	return cmd
}

func newAlertDetailsCommand() *cobra.Command {
	var signal int

	cmd := &cobra.Command{
		Use:   "details [alert_id]",
		Short: "Show the detail rows behind an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			var d *client.AlertDetails
			if signal != 0 {
				d, err = c.SignalAlertDetails(signal, args[0])
			} else {
				d, err = c.AlertDetails(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to get alert details: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(d.Details) == 0 {
				fmt.Fprintf(out, "No detail rows for alert %s (signal %d)\n", args[0], d.SignalCode)
			} else {
				if err := printDetails(out, d.Columns, d.Details); err != nil {
					return err
				}
			}

			if len(d.Rules) > 0 {
				fmt.Fprintln(out, "\nPublished rules:")
				for _, r := range d.Rules {
					fmt.Fprintf(out, "  [%s/%s] %s\n", r.Workflow, r.Severity, r.Described)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&signal, "signal", 0, "Look up details under this signal code instead of the alert's own")
	return cmd
}

func printDetails(out io.Writer, columns []string, rows []models.DetailRecord) error {
	if len(columns) == 0 {
		columns = rows[0].Columns
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = r.Values[col]
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
