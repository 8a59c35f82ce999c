package main

import (
	"github.com/spf13/cobra"

	"rakshak/pkg/config"
	"rakshak/pkg/inference"
	"rakshak/pkg/ml"
	"rakshak/pkg/risk"
	"rakshak/pkg/structlog"
	"rakshak/pkg/threatgw"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	modelsRoot string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "threatctl",
		Short: "Run the threat models and risk scoring from the command line",
		Long: "threatctl loads the model artifacts from disk and runs the same analysis\n" +
			"as the threat gateway service, without the HTTP layer.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.modelsRoot, "models", "", "models root directory (default $RAKSHAK_MODELS_ROOT or ./models)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(newModelsCmd(flags), newAnalyzeCmd(flags), newBatchCmd(flags))
	return root
}

// loadGateway builds a gateway from the environment configuration, with
// command-line flags taking precedence.
func loadGateway(cmd *cobra.Command, flags *rootFlags) (*threatgw.Gateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.modelsRoot != "" {
		cfg.ModelsRoot = flags.modelsRoot
	}
	logger := structlog.NewLogger("threatctl", structlog.ParseLevel(flags.logLevel), cmd.ErrOrStderr())

	layout, err := cfg.ArtifactLayout()
	if err != nil {
		return nil, err
	}
	agg, err := risk.NewAggregator(cfg.Risk)
	if err != nil {
		return nil, err
	}
	models := ml.LoadAll(cfg.ModelsRoot, layout, ml.WithLogger(logger))
	return threatgw.New(models,
		threatgw.WithLogger(logger),
		threatgw.WithAggregator(agg),
		threatgw.WithAdapterOptions(inference.WithNegativeClasses(cfg.ZeroDayNegativeClasses)),
	), nil
}
