package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewSignalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "signal",
		Short:   "Inspect signal catalog and detail tables",
		Aliases: []string{"signals", "s"},
	}

	cmd.AddCommand(newSignalListCommand())
	cmd.AddCommand(newSignalVarsCommand())

	return cmd
}

func newSignalListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List known signals",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			list, err := c.ListSignals()
			if err != nil {
				return fmt.Errorf("failed to list signals: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTABLE\tDETAILS\tCATALOG")
			for _, s := range list.Signals {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.Code, s.Name, s.Table, yesNo(s.Loaded), yesNo(s.Cataloged))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, e := range list.DetailErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e)
			}
			return nil
		},
	}
}

func newSignalVarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vars [signal_code]",
		Short: "List the system variables available to the rule builder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid signal code: %w", err)
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			vars, err := c.SignalVariables(code)
			if err != nil {
				return fmt.Errorf("failed to get variables: %w", err)
			}
			if len(vars) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Signal %d has no system variables\n", code)
				return nil
			}
			for _, v := range vars {
				fmt.Fprintln(cmd.OutOrStdout(), v.Label)
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
