package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loaneye/internal/api/client"
	"github.com/loaneye/internal/models"
	"github.com/loaneye/internal/rule"
)

func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Short:   "Compose rules in a builder session",
		Aliases: []string{"sessions", "sess"},
	}

	cmd.AddCommand(newSessionNewCommand())
	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionAddCommand())
	cmd.AddCommand(newSessionResetCommand())
	cmd.AddCommand(newSessionSaveCommand())
	cmd.AddCommand(newSessionSwitchCommand())
	cmd.AddCommand(newSessionPublishCommand())
	cmd.AddCommand(newSessionDeleteCommand())

	return cmd
}

func newSessionNewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new [signal_code]",
		Short: "Start a session for a signal",
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

			state, err := c.CreateSession(code)
			if err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session_id]",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			state, err := c.GetSession(args[0])
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func newSessionAddCommand() *cobra.Command {
	var (
		block int
		piece rule.Piece
	)

	cmd := &cobra.Command{
		Use:   "add [session_id]",
		Short: "Append a clause to a block",
		Example: `  loaneye session add $SID --var "Max Dpd FROM Collections TABLE" --op ">" --value 90
  loaneye session add $SID --join AND --var "Region FROM Collections TABLE" --op is.in --value North,West`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := piece.Validate(); err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			text, err := c.AddPiece(args[0], block, piece)
			if err != nil {
				return fmt.Errorf("failed to add clause: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Block %d: %s\n", block, text)
			return nil
		},
	}

	cmd.Flags().IntVarP(&block, "block", "b", rule.DefaultBlock, "Block id")
	cmd.Flags().StringVar(&piece.PreOperator, "pre", "", "Pre-operator (MAX, MIN, -, SUM, COUNT, COUNT UNIQUE)")
	cmd.Flags().StringVar(&piece.Variable, "var", "", "System variable or saved variable name")
	cmd.Flags().StringVar(&piece.Operator, "op", "", "Operator")
	cmd.Flags().StringVar(&piece.Value, "value", "", "Value, comma separated for lists")
	cmd.Flags().StringVar(&piece.Join, "join", "", "Join with the previous clause (AND, OR)")
	_ = cmd.MarkFlagRequired("var")

	return cmd
}

func newSessionResetCommand() *cobra.Command {
	var block int

	cmd := &cobra.Command{
		Use:   "reset [session_id]",
		Short: "Clear a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.ResetBlock(args[0], block); err != nil {
				return fmt.Errorf("failed to reset block: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Block %d cleared\n", block)
			return nil
		},
	}

	cmd.Flags().IntVarP(&block, "block", "b", rule.DefaultBlock, "Block id")
	return cmd
}

func newSessionSaveCommand() *cobra.Command {
	var (
		block    int
		name     string
		workflow string
		severity string
	)

	cmd := &cobra.Command{
		Use:   "save [session_id]",
		Short: "Save a block as a variable rule (--name) or a final rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.SaveRequest{Kind: "final", Workflow: models.Workflow(workflow), Severity: models.Severity(severity)}
			if name != "" {
				req = client.SaveRequest{Kind: "variable", Name: name}
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			res, err := c.SaveBlock(args[0], block, req)
			if err != nil {
				return fmt.Errorf("failed to save block: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case res.VariableRule != nil:
				fmt.Fprintf(out, "Saved variable %s = %s\n", res.VariableRule.Name, res.VariableRule.Definition)
			case res.FinalRule != nil:
				fmt.Fprintf(out, "Saved final rule [%s/%s]\n  %s\n", res.FinalRule.Workflow, res.FinalRule.Severity, res.FinalRule.Expression)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&block, "block", "b", rule.DefaultBlock, "Block id")
	cmd.Flags().StringVar(&name, "name", "", "Save as a variable rule under this name")
	cmd.Flags().StringVar(&workflow, "workflow", string(models.WorkflowMedium), "Actionable workflow (Critical, High, Medium, Low)")
	cmd.Flags().StringVar(&severity, "severity", string(models.SeverityMedium), "Alert severity (High, Medium, Low)")
	return cmd
}

func newSessionSwitchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "switch [session_id] [signal_code]",
		Short: "Switch the session to another signal, discarding its rules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid signal code: %w", err)
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			state, err := c.SwitchSignal(args[0], code)
			if err != nil {
				return fmt.Errorf("failed to switch signal: %w", err)
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func newSessionPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish [session_id]",
		Short: "Publish the session's final rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			rules, err := c.Publish(args[0])
			if err != nil {
				return fmt.Errorf("failed to publish: %w", err)
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}
}

func newSessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [session_id]",
		Short:   "Discard a session",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteSession(args[0]); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted\n", args[0])
			return nil
		},
	}
}

func printState(out io.Writer, s *rule.State) {
	fmt.Fprintf(out, "Session:  %s\n", s.ID)
	fmt.Fprintf(out, "Signal:   %d\n", s.SignalCode)

	fmt.Fprintln(out, "Variables:")
	for _, v := range s.AvailableVariables {
		fmt.Fprintf(out, "  %s\n", v)
	}

	if len(s.VariableRules) > 0 {
		fmt.Fprintln(out, "Variable rules:")
		for _, v := range s.VariableRules {
			fmt.Fprintf(out, "  %s = %s\n", v.Name, v.Definition)
		}
	}
	if len(s.Blocks) > 0 {
		fmt.Fprintln(out, "Blocks:")
		for id, last := 1, maxBlock(s.Blocks); id <= last; id++ {
			if text, ok := s.Blocks[id]; ok && text != "" {
				fmt.Fprintf(out, "  %d: %s\n", id, text)
			}
		}
	}
	if len(s.FinalRules) > 0 {
		fmt.Fprintln(out, "Final rules:")
		for i, r := range s.FinalRules {
			fmt.Fprintf(out, "  %d. [%s/%s] %s\n", i+1, r.Workflow, r.Severity, r.Expression)
		}
	}
}

func maxBlock(blocks map[int]string) int {
	n := 0
	for id := range blocks {
		if id > n {
			n = id
		}
	}
	return n
}
