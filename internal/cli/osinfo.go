package cli

import "github.com/spf13/cobra"

var osCmd = &cobra.Command{
	Use:   "os <name>",
	Short: "Show guest OS details for a VM",
	Long:  "Show domain details for a VM, including guest OS type and architecture.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOS(current, args[0])
	},
}

func runOS(a *app, name string) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	fields, err := a.virt.OSDetails(ctx, name)
	if err != nil {
		return err
	}

	for _, f := range fields {
		a.printf("%s: %s\n", f.Key, f.Value)
	}
	return nil
}
