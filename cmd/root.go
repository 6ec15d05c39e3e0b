package cmd

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/shopimg-cli/internal/config"
	"github.com/AnyUserName/shopimg-cli/internal/identity"
	applog "github.com/AnyUserName/shopimg-cli/internal/log"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string

	logger = zerolog.Nop()
	appCfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "shopimg",
	Short: "Normalize storefront product and category images",
	Long: `shopimg turns arbitrary product photos into square, size-bounded images
ready for the catalog backend.

Every local file is center-cropped, resized to the rule's square target and
re-encoded at the highest quality that fits the byte budget. Already hosted
images are kept by URL.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: shopimg.yaml)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"shopimg %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func setup(cmd *cobra.Command, _ []string) error {
	logger = applog.NewWithWriter(cmd.ErrOrStderr(), verbose)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	appCfg = cfg
	logger.Debug().
		Str("env", cfg.Environment).
		Strs("rules", cfg.RuleNames()).
		Bool("content_digest", cfg.Identity.ContentDigest).
		Msg("config loaded")
	return nil
}

func identifier() identity.Identifier {
	if appCfg == nil {
		return identity.Identifier{}
	}
	return identity.Identifier{ContentDigest: appCfg.Identity.ContentDigest}
}
