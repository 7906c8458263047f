package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flint/internal/config"
)

// loadConfig resolves the manifest: an explicit --config path wins,
// otherwise the nearest flint.toml above the target directory, otherwise
// defaults.
func loadConfig(cmd *cobra.Command, targetDir string) (*config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if explicit != "" {
		return config.Load(explicit)
	}
	found, ok, err := config.Find(targetDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return config.Default(), nil
	}
	return config.Load(found)
}

func useColor(cmd *cobra.Command) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

// silentExit suppresses cobra's usage dump when findings were already
// printed and only the exit status needs to change.
func silentExit(cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return fmt.Errorf("")
}
