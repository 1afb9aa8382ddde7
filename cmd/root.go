package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"img2pdf/internal/config"
)

// rootOptions is shared by every subcommand. cfg is populated before any
// RunE is called.
type rootOptions struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "img2pdf",
		Short: "Combine PNG and JPEG images into a single PDF",
		Long: `img2pdf collects images and writes them into one PDF, one page per image,
each page sized to its image.

Images can be converted from the command line or through a small HTTP
service that keeps a collection across requests.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			v := config.New(opts.cfgFile)
			if err := v.BindPFlag("log.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
				return fmt.Errorf("could not bind log level flag: %w", err)
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Config file (default ./img2pdf.yaml or ~/.config/img2pdf/img2pdf.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(newConvertCmd(opts))
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}
