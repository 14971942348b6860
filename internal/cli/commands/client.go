package commands

import (
	"errors"

	"github.com/spf13/viper"

	"github.com/loaneye/internal/api/client"
)

// Config keys persisted in the CLI config file.
const (
	KeyAPIURL = "api_url"
	KeyToken  = "token"
)

func newClient() (*client.Client, error) {
	token := viper.GetString(KeyToken)
	if token == "" {
		return nil, errors.New("not logged in, run 'loaneye login' first")
	}
	return client.NewClient(viper.GetString(KeyAPIURL), token), nil
}
