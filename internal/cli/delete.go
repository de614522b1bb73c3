package cli

import "github.com/spf13/cobra"

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a VM",
	Long:  "Undefine a VM, destroying it first if running. Storage volumes are kept unless --remove-storage is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(current, args[0], deleteRemoveStorage)
	},
}

var deleteRemoveStorage bool

func init() {
	deleteCmd.Flags().BoolVar(&deleteRemoveStorage, "remove-storage", false, "Also remove the VM's storage volumes")
}

func runDelete(a *app, name string, removeStorage bool) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	if err := a.virt.Delete(ctx, name, removeStorage); err != nil {
		return err
	}

	a.printf("VM %q deleted.\n", name)
	return nil
}
