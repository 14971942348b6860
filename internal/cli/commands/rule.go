package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/loaneye/internal/api/client"
	"github.com/loaneye/internal/models"
)

func NewRuleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rule",
		Short:   "Manage published rules",
		Aliases: []string{"rules", "r"},
	}

	cmd.AddCommand(newRuleListCommand())
	cmd.AddCommand(newRuleGetCommand())
	cmd.AddCommand(newRuleIDCommand("delete", "Delete a published rule", "deleted", (*client.Client).DeleteRule))
	cmd.AddCommand(newRuleIDCommand("enable", "Enable a published rule", "enabled", (*client.Client).EnableRule))
	cmd.AddCommand(newRuleIDCommand("disable", "Disable a published rule", "disabled", (*client.Client).DisableRule))
	cmd.AddCommand(newRuleImportCommand())
	cmd.AddCommand(newRuleExportCommand())

	return cmd
}

func parseRuleID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid rule ID: %w", err)
	}
	return uint(id), nil
}

func newRuleListCommand() *cobra.Command {
	var (
		enabled string
		signal  int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List published rules",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabledFlag *bool
			if enabled != "" {
				b, err := strconv.ParseBool(enabled)
				if err != nil {
					return fmt.Errorf("invalid --enabled value: %w", err)
				}
				enabledFlag = &b
			}
			var signalFlag *int
			if cmd.Flags().Changed("signal") {
				signalFlag = &signal
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			rules, err := c.ListRules(enabledFlag, signalFlag)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&enabled, "enabled", "", "Filter by enabled status (true/false)")
	cmd.Flags().IntVar(&signal, "signal", 0, "Filter by signal code")
	return cmd
}

func newRuleGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show a published rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}

			rule, err := c.GetRule(id)
			if err != nil {
				return fmt.Errorf("failed to get rule: %w", err)
			}
			printRule(cmd.OutOrStdout(), rule)
			return nil
		},
	}
}

type ruleAction func(c *client.Client, id uint) error

func newRuleIDCommand(use, short, done string, action ruleAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := action(c, id); err != nil {
				return fmt.Errorf("failed to %s rule: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rule %d %s successfully\n", id, done)
			return nil
		},
	}
}

func newRuleImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import rules from a JSON export (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read rules: %w", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			n, err := c.ImportRules(data)
			if err != nil {
				return fmt.Errorf("failed to import rules: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rule(s)\n", n)
			return nil
		},
	}
}

func newRuleExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all published rules as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := c.ExportRules(out); err != nil {
				return fmt.Errorf("failed to export rules: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func printRules(out io.Writer, rules []models.PublishedRule) {
	fmt.Fprintf(out, "%-5s %-6s %-10s %-10s %-8s %s\n",
		"ID", "Signal", "Workflow", "Severity", "Enabled", "Rule")
	fmt.Fprintln(out, strings.Repeat("-", 100))

	for _, rule := range rules {
		fmt.Fprintf(out, "%-5d %-6d %-10s %-10s %-8v %s\n",
			rule.ID, rule.SignalCode, rule.Workflow, rule.Severity,
			rule.IsEnabled, rule.Described)
	}
}

func printRule(out io.Writer, rule *models.PublishedRule) {
	fmt.Fprintf(out, "ID:           %d\n", rule.ID)
	fmt.Fprintf(out, "Signal:       %d %s\n", rule.SignalCode, rule.SignalName)
	fmt.Fprintf(out, "Rule:         %s\n", rule.Described)
	fmt.Fprintf(out, "Expanded:     %s\n", rule.Expression)
	fmt.Fprintf(out, "Workflow:     %s\n", rule.Workflow)
	fmt.Fprintf(out, "Severity:     %s\n", rule.Severity)
	fmt.Fprintf(out, "Enabled:      %v\n", rule.IsEnabled)
	if rule.PublishedBy != "" {
		fmt.Fprintf(out, "Published By: %s\n", rule.PublishedBy)
	}
	fmt.Fprintf(out, "Created At:   %s\n", rule.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Updated At:   %s\n", rule.UpdatedAt.Format(time.RFC3339))
}
