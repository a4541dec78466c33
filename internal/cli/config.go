package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/paper-digest/internal/config"
)

func init() {
	optional := map[string]string{configOptional: "1"}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage settings",
	}

	show := &cobra.Command{
		Use:         "show",
		Short:       "Print the effective settings as YAML (API key masked)",
		Annotations: optional,
		Run: func(cmd *cobra.Command, args []string) {
			b, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				exitErr("marshal config", err)
			}
			fmt.Print(string(b))
		},
	}

	path := &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Annotations: optional,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(getConfigPath())
		},
	}

	export := &cobra.Command{
		Use:         "export <file>",
		Short:       "Write the effective settings to a YAML file (API key masked)",
		Args:        cobra.ExactArgs(1),
		Annotations: optional,
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.Export(cfg, args[0]); err != nil {
				exitErr("export", err)
			}
			printJSON(map[string]any{"ok": true, "path": args[0]})
		},
	}

	imp := &cobra.Command{
		Use:         "import <file>",
		Short:       "Validate a YAML file and install it as the user config",
		Args:        cobra.ExactArgs(1),
		Annotations: optional,
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := config.Import(config.Dir(), args[0]); err != nil {
				exitErr("import", err)
			}
			printJSON(map[string]any{"ok": true, "path": config.UserPath(config.Dir())})
		},
	}

	reset := &cobra.Command{
		Use:         "reset",
		Short:       "Move the user config aside and fall back to defaults",
		Annotations: optional,
		Run: func(cmd *cobra.Command, args []string) {
			backup, err := config.Reset(config.Dir(), time.Now())
			if err != nil {
				exitErr("reset", err)
			}
			printJSON(map[string]any{"ok": true, "backup": backup})
		},
	}

	cmd.AddCommand(show, path, export, imp, reset)
	RootCmd.AddCommand(cmd)
}
