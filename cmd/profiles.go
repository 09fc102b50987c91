// File: cmd/profiles.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/mimic/internal/humanoid"
)

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect the behavior profiles",
	}
	cmd.AddCommand(newProfilesListCmd(), newProfilesExportCmd())
	return cmd
}

// registryFromContext returns the presets plus any custom profiles from the config.
func registryFromContext(cmd *cobra.Command) (*humanoid.ProfileRegistry, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, err
	}
	reg, err := humanoid.NewProfileRegistry(cfg.Profiles()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile registry: %w", err)
	}
	return reg, nil
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromContext(cmd)
			if err != nil {
				return err
			}
			profiles := reg.Profiles()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printResult(cmd, profiles)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSPEED\tPRECISION\tHESITATE\tOVERSHOOT\tCORRECT\tFATIGUE\tWPM\tERRORS")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f\t%.3f\n",
					p.Name, p.SpeedMult, p.Precision, p.HesitationChance, p.OvershootChance,
					p.CorrectionRate, p.FatigueSensitivity, p.BaseWPM, p.BaseErrorRate)
			}
			return tw.Flush()
		},
	}
}

func newProfilesExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [NAME...]",
		Short: "Write profiles as a YAML profiles: block for a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromContext(cmd)
			if err != nil {
				return err
			}
			profiles := reg.Profiles()
			if len(args) > 0 {
				profiles = profiles[:0]
				for _, name := range args {
					p, err := reg.Lookup(name)
					if err != nil {
						return err
					}
					profiles = append(profiles, p)
				}
			}

			data, err := yaml.Marshal(struct {
				Profiles []humanoid.Profile `yaml:"profiles"`
			}{profiles})
			if err != nil {
				return fmt.Errorf("failed to encode profiles: %w", err)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d profiles to %s\n", len(profiles), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
