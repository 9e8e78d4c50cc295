package commands

import (
	"time"

	"github.com/cucumber/godog"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RedHatInsights/mockbdd"
	"github.com/RedHatInsights/mockbdd/internal/config"
	"github.com/RedHatInsights/mockbdd/providers/local"
	"github.com/RedHatInsights/mockbdd/providers/podman"
	"github.com/RedHatInsights/mockbdd/steps"
)

var SuiteFailed = errorx.NewNamespace("mockbdd_cli").NewType("suite_failed")

type runFlags struct {
	executable string
	timeout    time.Duration
	format     string
	tags       string
	provider   string
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the feature files against the mock service executable",
		Long: "Run the feature files against the mock service executable. " +
			"Without paths the built-in features are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			cfg = flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSuite(cmd, cfg, args)
		},
	}

	cmd.Flags().StringVar(&flags.executable, "executable", "", "executable under test")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "time limit for one executable run, 0 waits forever")
	cmd.Flags().StringVar(&flags.format, "format", "", "godog formatter: pretty|progress|cucumber|junit")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "tag expression selecting scenarios")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "where to run the executable: local|podman")

	return cmd
}

// apply overrides configuration with flags set on the command line.
func (f *runFlags) apply(cmd *cobra.Command, cfg config.Config) config.Config {
	changed := cmd.Flags().Changed
	if changed("executable") {
		cfg.Executable = f.executable
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("tags") {
		cfg.Tags = f.tags
	}
	if changed("provider") {
		cfg.Provider = f.provider
	}
	return cfg
}

func newProvider(cfg config.Config) (mockbdd.Provider, error) {
	switch cfg.Provider {
	case config.ProviderPodman:
		return podman.Provider(
			podman.WithCLI(cfg.Podman.CLI),
			podman.WithImage(cfg.Podman.Image),
			podman.WithNetwork(cfg.Podman.Network),
			podman.WithVolumes(cfg.Podman.Volumes...),
		), nil
	case config.ProviderLocal:
		return local.Provider(), nil
	default:
		return nil, config.InvalidError.New("unknown provider %q", cfg.Provider)
	}
}

func runSuite(cmd *cobra.Command, cfg config.Config, paths []string) error {
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	if prep, ok := provider.(mockbdd.PreparableProvider); ok {
		if err := prep.Prepare(); err != nil {
			return errorx.Decorate(err, "failed to prepare provider")
		}
		defer func() {
			if err := prep.Cleanup(); err != nil {
				log.Warn().Err(err).Msg("Provider cleanup failed")
			}
		}()
	}

	log.Info().
		Str("executable", cfg.Executable).
		Str("provider", cfg.Provider).
		Dur("timeout", cfg.Timeout).
		Strs("paths", paths).
		Msg("Running feature files")

	suite := &steps.Suite{
		Provider:           provider,
		Executable:         cfg.Executable,
		ExpectedReturnCode: cfg.ExpectedReturnCode,
		Timeout:            cfg.Timeout,
	}
	status := suite.Run("insights-results-aggregator-mock", &godog.Options{
		Format: cfg.Format,
		Tags:   cfg.Tags,
		Paths:  paths,
		Output: cmd.OutOrStdout(),
		Strict: true,
	})
	if status != 0 {
		return SuiteFailed.New("feature run finished with status %d", status)
	}
	return nil
}
