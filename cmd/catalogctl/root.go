package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iyhunko/wallart-storefront/internal/client"
	"github.com/iyhunko/wallart-storefront/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Setting keys, shared by flags, CATALOG_* environment variables and the config file.
const (
	serverKey      = "server"
	sessionFileKey = "session-file"
	timeoutKey     = "timeout"
	debugKey       = "debug"
	emailKey       = "email"
	passwordKey    = "password"
)

const envPrefix = "CATALOG"

type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Manage a wall-art storefront catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadConfig(configFile); err != nil {
				return err
			}
			debug := a.v.GetBool(debugKey)
			slog.SetDefault(logger.NewJSONLogger(cmd.ErrOrStderr(), debug))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.catalogctl.yaml)")
	flags.String(serverKey, "http://localhost:8080", "storefront base URL")
	flags.String(sessionFileKey, defaultSessionFile(), "where the session cookie is kept between runs")
	flags.Duration(timeoutKey, 30*time.Second, "HTTP timeout")
	flags.Bool(debugKey, false, "debug logging")
	for _, key := range []string{serverKey, sessionFileKey, timeoutKey, debugKey} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.newLoginCmd(),
		a.newAddCmd(),
		a.newListCmd(),
		a.newCategoriesCmd(),
	)
	return root
}

func (a *app) loadConfig(configFile string) error {
	if configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".catalogctl")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && configFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// newClient builds a storefront client with the saved session, if any.
func (a *app) newClient() (*client.Client, error) {
	c, err := client.New(a.v.GetString(serverKey), a.v.GetDuration(timeoutKey))
	if err != nil {
		return nil, err
	}

	cookies, err := loadSession(a.v.GetString(sessionFileKey))
	if err != nil {
		return nil, err
	}
	c.SetCookies(cookies)
	return c, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".catalogctl-session.json"
	}
	return filepath.Join(dir, "catalogctl", "session.json")
}
