package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loaneye/internal/report"
)

func NewDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Portfolio risk dashboard",
		Aliases: []string{"dash", "d"},
	}

	cmd.AddCommand(newDashboardShowCommand())
	cmd.AddCommand(newDashboardNotifyCommand())

	return cmd
}

func newDashboardShowCommand() *cobra.Command {
	var portfolios []string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show dashboard panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			d, err := c.Dashboard(portfolios)
			if err != nil {
				return fmt.Errorf("failed to get dashboard: %w", err)
			}
			return displayDashboard(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringSliceVarP(&portfolios, "portfolio", "p", nil, "Portfolio (repeatable)")
	return cmd
}

func newDashboardNotifyCommand() *cobra.Command {
	var portfolios []string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send the dashboard digest to the configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			sent, err := c.NotifyDashboard(portfolios)
			if err != nil {
				return fmt.Errorf("failed to send digest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Digest sent via %s\n", strings.Join(sent, ", "))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&portfolios, "portfolio", "p", nil, "Portfolio (repeatable)")
	return cmd
}

func displayDashboard(out io.Writer, d *report.Dashboard) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	if len(d.SelectedPortfolios) > 0 {
		fmt.Fprintf(w, "Portfolios:\t%s\n", strings.Join(d.SelectedPortfolios, ", "))
	}
	fmt.Fprintf(w, "Total alerts:\t%d\n", d.Metrics.TotalAlerts)
	fmt.Fprintf(w, "Borrowers with alerts:\t%d\n", d.Metrics.BorrowersWithAlerts)
	fmt.Fprintf(w, "Total borrowers:\t%d\n", d.Metrics.TotalBorrowers)
	fmt.Fprintf(w, "Overdue (Cr):\t%s\n", d.Overdue.Display)

	fmt.Fprintln(w, "\nSEVERITY\tCOUNT\t%")
	for _, s := range d.SeverityMix {
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", s.Label, s.Count, s.Percent)
	}

	fmt.Fprintln(w, "\nCASE STATUS\tCOUNT\t%")
	for _, s := range d.CaseStatusMix {
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", s.Label, s.Count, s.Percent)
	}

	fmt.Fprintln(w, "\nMAX DPD\tCOUNT\t%")
	for _, b := range d.DPDDistribution {
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", b.Label, b.Count, b.Percent)
	}

	fmt.Fprintln(w, "\nCIBIL\tCOUNT\tP25\tMEDIAN\tP75\tMEAN")
	for _, s := range d.CibilBySeverity {
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%.0f\t%.0f\t%.1f\n", s.Severity, s.Count, s.P25, s.Median, s.P75, s.Mean)
	}

	fmt.Fprintln(w, "\nBORROWER\tNAME\tHIGH\tMEDIUM\tLOW\tSCORE")
	for _, b := range d.HighRiskBorrowers {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.3f\n", b.BorrowerID, b.BorrowerName, b.High, b.Medium, b.Low, b.Score)
	}

	fmt.Fprintln(w, "\nCASE STATUS\tALERTS\tAVG DAYS SINCE COMMENT")
	for _, a := range d.Actionables {
		avg := "-"
		if a.AvgDays != nil {
			avg = fmt.Sprintf("%.1f", *a.AvgDays)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", a.CaseStatus, a.Count, avg)
	}

	return w.Flush()
}
