package commands

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RedHatInsights/mockbdd/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration set by files & env variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			out, err := formatConfig(cfg, format)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml|toml")
	return cmd
}

func formatConfig(cfg config.Config, format string) (string, error) {
	switch strings.ToLower(format) {
	case "yaml":
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling configuration to YAML")
		}
		return string(out), nil
	case "toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "Error marshaling configuration to TOML")
		}
		return sb.String(), nil
	default:
		return "", errorx.IllegalFormat.New("unsupported format: %s", format)
	}
}
