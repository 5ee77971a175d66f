package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// BindFlags registers the client flags on flags and binds each one to v, so an
// explicitly set flag wins over the environment and the config file.
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	var d Config
	d.LoadDefaults()

	flags.StringP(flagName(KeyConfigFile), "c", "", "path to a JSON config file")
	flags.String(flagName(KeyDBPath), d.DBPath, "path to the SQLite database")
	flags.Int(flagName(KeyMaxOpenConns), d.MaxOpenConns, "maximum open database connections")
	flags.String(flagName(KeyKeyringService), d.KeyringService, "keyring service holding the cache key")
	flags.String(flagName(KeyKeyringAccount), d.KeyringAccount, "keyring account holding the cache key")
	flags.Bool(flagName(KeyUseMemoryKeyring), d.UseMemoryKeyring, "keep the cache key in memory only")
	flags.StringP(flagName(KeyServerURL), "s", d.ServerURL, "base URL of the chat service")
	flags.Duration(flagName(KeyRequestTimeout), d.RequestTimeout, "timeout for a single remote request")
	flags.Float64(flagName(KeyRequestsPerSecond), d.RequestsPerSecond, "remote request rate limit, 0 disables")
	flags.Duration(flagName(KeySyncInterval), d.SyncInterval, "interval between background sync passes")
	flags.String(flagName(KeyLogLevel), d.LogLevel, "log level: debug, info, warn, error")
	flags.String(flagName(KeyUserID), d.UserID, "local user whose preferences apply")

	for _, key := range []string{
		KeyConfigFile, KeyDBPath, KeyMaxOpenConns, KeyKeyringService, KeyKeyringAccount,
		KeyUseMemoryKeyring, KeyServerURL, KeyRequestTimeout, KeyRequestsPerSecond,
		KeySyncInterval, KeyLogLevel, KeyUserID,
	} {
		if err := v.BindPFlag(key, flags.Lookup(flagName(key))); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// LoadDotEnv exports variables from the given .env files (".env" when none
// are named). Missing files are ignored; variables already set in the
// process environment are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
