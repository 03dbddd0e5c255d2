package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/FolkDNA/internal/storage"
	"github.com/himanishpuri/FolkDNA/pkg/folkdna"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "folkdna",
	Short:         "Folk tune recognition from recorded audio",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		if viper.IsSet("log-level") {
			logger.SetLevel(logger.ParseLevel(viper.GetString("log-level")))
		}
		if viper.GetBool("no-color") {
			color.NoColor = true
			logger.SetColorize(false)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./folkdna.yaml)")
	flags.String("index", storage.DefaultDBFile, "Tune index, JSON or SQLite (env: FOLKDNA_INDEX)")
	flags.Int("workers", 0, "Worker pool size for dataset commands (default: one per CPU)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("no-color", false, "Disable coloured output")

	for _, name := range []string{"index", "workers", "log-level", "no-color"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newTranscribeCmd(),
		newMatchCmd(),
		newDatasetCmd(),
		newQueryCmd(),
		newABCCmd(),
		newTuneCmd(),
		newIndexCmd(),
		newSpectrogramCmd(),
	)
}

func initConfig() error {
	viper.SetEnvPrefix("FOLKDNA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("folkdna")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		return nil
	}
	logger.Debugf("Using config file: %s", viper.ConfigFileUsed())
	return nil
}

// createService loads the configured tune index.
func createService(opts ...folkdna.Option) (folkdna.Service, error) {
	base := []folkdna.Option{
		folkdna.WithIndexPath(viper.GetString("index")),
		folkdna.WithWorkers(viper.GetInt("workers")),
		folkdna.WithLogger(logger.GetLogger()),
	}
	return folkdna.NewService(append(base, opts...)...)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		err = xerrors.New(err)
		logger.Debugf("%s", xerrors.Sprint(err))
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("❌ Error:"), err)
		os.Exit(1)
	}
}
