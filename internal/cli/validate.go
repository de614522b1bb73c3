package cli

import "github.com/spf13/cobra"

var validateCmd = &cobra.Command{
	Use:   "validate <name>",
	Short: "Validate a VM's XML configuration",
	Long:  "Run the hypervisor's schema validation over a VM's domain XML and report any issues.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(current, args[0])
	},
}

func runValidate(a *app, name string) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	issues, err := a.virt.Validate(ctx, name)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		a.printf("No configuration issues detected.\n")
		return nil
	}

	a.printf("Issues detected:\n")
	for _, issue := range issues {
		a.printf("- %s\n", issue)
	}
	return nil
}
