package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "undertone",
	Short: "Classify skin undertone from camera frames or images",
	Long: `Undertone classifies the skin undertone visible in a camera stream or in
still images as WARM, COOL or NEUTRAL.

Skin is segmented in HSV space, the chroma of the skin pixels is summarized
in L*a*b* after trimming outliers, and a fixed set of thresholds maps the
summary to a label.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func initConfig() {
	err := readConfig(viper.GetViper(), cfgFile)

	// Logging is set up after the config is read so a verbose key in the
	// file takes effect.
	if logger == nil {
		initLogging()
	}
	reportConfig(logger, viper.GetViper(), err)
}

// readConfig points v at path, or at ./config.yaml when path is empty, and
// reads it. UNDERTONE_* environment variables override file values.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("UNDERTONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v.ReadInConfig()
}

func reportConfig(log *slog.Logger, v *viper.Viper, err error) {
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Debug("Using config file", "path", v.ConfigFileUsed())
	case errors.As(err, &notFound):
		log.Debug("No config file found, using flags and environment")
	default:
		log.Warn("Failed to read config file", "path", v.ConfigFileUsed(), "error", err)
	}
}
