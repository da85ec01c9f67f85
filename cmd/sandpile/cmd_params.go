package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the lattice parameter snapshot as YAML",
		Long: `Print the lattice parameters that a run with the same flags would use,
grouped and described. The seed is shown as resolved, so it is
time-derived unless --seed, SANDPILE_LATTICE_SEED or the config file sets it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg.LatticeConfig().Parameters()); err != nil {
				return fmt.Errorf("encoding parameters: %w", err)
			}
			return enc.Close()
		},
	}
}
