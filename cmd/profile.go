package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/amice/core/profile"
	"github.com/kilianp07/amice/infra/loader"
)

var profileCmd = &cobra.Command{
	Use:   "profile <appliance.csv>...",
	Short: "Print the features extracted from appliance recordings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  printProfiles,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func printProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, path := range args {
		s, err := loader.LoadApplianceFile(path)
		if err != nil {
			return err
		}
		p, err := profile.FromSeries(loader.ApplianceName(path), s, cfg.Extraction)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s: %d features, origin t=%g\n", p.Name(), p.Len(), p.Origin())
		for _, r := range p.Records() {
			_, _ = fmt.Fprintf(out, "  t=%g %s\n", r.T, r.Feature)
		}
	}
	return nil
}
