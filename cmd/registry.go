package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lienwise/bidengine/internal/model"
)

var registryFile string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and validate the indicator registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a registry file",
	Long:  "Runs the same fatal-at-startup validation the engine applies: per-category weights must sum to 1.0, codes must be unique, curves must be monotonic.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if registryFile != "" {
			cfg.Registry.Path = registryFile
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		fmt.Printf("registry %s OK: %d indicators, %d jurisdictions\n",
			reg.Version, len(reg.Indicators), len(reg.Jurisdictions))
		return nil
	},
}

var registryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the loaded indicator taxonomy",
	RunE: func(cmd *cobra.Command, args []string) error {
		if registryFile != "" {
			cfg.Registry.Path = registryFile
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		for _, cat := range []model.Category{model.CategoryHBU, model.CategoryCMA, model.CategoryRisk} {
			inds := reg.ByCategory(cat)
			if len(inds) == 0 {
				continue
			}
			fmt.Printf("%s:\n", cat)
			for _, ind := range inds {
				fmt.Printf("  %-26s %-12s weight=%.2f polarity=%s neutral=%.0f\n",
					ind.Code, ind.Kind, ind.Weight, ind.Polarity, ind.NeutralDefault)
			}
		}
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryFile, "file", "", "registry YAML path (default: configured or embedded)")
	registryCmd.AddCommand(registryValidateCmd)
	registryCmd.AddCommand(registryShowCmd)
	rootCmd.AddCommand(registryCmd)
}
