package cli

import "github.com/spf13/cobra"

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List VMs with state and OS type",
	Long:  "List all defined virtual machines with their current state and guest OS type.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(current)
	},
}

func runList(a *app) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	vms, err := a.virt.List(ctx)
	if err != nil {
		return err
	}

	if len(vms) == 0 {
		a.printf("No VMs defined.\n")
		return nil
	}
	for _, vm := range vms {
		a.printf("%s: state=%s os=%s\n", vm.Name, vm.State, vm.OSType)
	}
	return nil
}
