package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loaneye/internal/api/client"
)

func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
		apiURL   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to LoanEye and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}
			if apiURL == "" {
				apiURL = viper.GetString(KeyAPIURL)
			}

			token, err := client.NewClient(apiURL, "").Login(username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			viper.Set(KeyToken, token)
			if apiURL != "" {
				viper.Set(KeyAPIURL, apiURL)
			}
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&apiURL, "url", "", "API base URL")
	return cmd
}

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set(KeyToken, "")
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func writeConfig() error {
	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to save config: %w", err)
		}
		if err := viper.SafeWriteConfig(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}
	return nil
}
