package cli

import (
	"fmt"

	"virtadm/internal/pathstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// MissingArgumentError indicates a conversion path was neither given as a
// flag nor available from the path store.
type MissingArgumentError struct {
	Flag string
	Hint string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing --%s and no remembered %s; pass the flag once to remember it", e.Flag, e.Hint)
}

var ovaToQcow2Cmd = &cobra.Command{
	Use:   "ova-to-qcow2",
	Short: "Convert an OVA archive to a QCOW2 image",
	Long: `Extract the disk image from an OVA archive and convert it to QCOW2.

Omitted flags are filled from the last successful run of this direction.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOvaToQcow2(current, convOvaPath, convOutPath)
	},
}

var qcow2ToOvaCmd = &cobra.Command{
	Use:   "qcow2-to-ova",
	Short: "Convert a QCOW2 image to an OVA archive",
	Long: `Convert a QCOW2 image to a stream-optimized VMDK and package it with
a generated OVF descriptor into an OVA archive.

Omitted path flags are filled from the last successful run of this direction.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQcow2ToOva(current, convQcow2Path, convOutPath, convVMName)
	},
}

var (
	convOvaPath   string
	convQcow2Path string
	convOutPath   string
	convVMName    string
)

func init() {
	ovaToQcow2Cmd.Flags().StringVar(&convOvaPath, "ova", "", "Source OVA archive path")
	ovaToQcow2Cmd.Flags().StringVar(&convOutPath, "out", "", "Destination QCOW2 image path")

	qcow2ToOvaCmd.Flags().StringVar(&convQcow2Path, "qcow2", "", "Source QCOW2 image path")
	qcow2ToOvaCmd.Flags().StringVar(&convOutPath, "out", "", "Destination OVA archive path")
	qcow2ToOvaCmd.Flags().StringVar(&convVMName, "name", "", "VM name for the OVF descriptor (required)")
}

// resolveConversionPaths fills omitted source/destination flags from the
// stored record of the matching kind. It fails with MissingArgumentError
// before any external tool is invoked.
func resolveConversionPaths(store pathstore.Store, kind pathstore.Kind, source, dest, sourceFlag, destFlag string) (string, string, error) {
	if source != "" && dest != "" {
		return source, dest, nil
	}

	rec, ok, err := store.Get(kind)
	if err != nil {
		return "", "", err
	}

	if source == "" {
		if !ok {
			return "", "", &MissingArgumentError{Flag: sourceFlag, Hint: "source path for " + string(kind)}
		}
		source = rec.SourcePath
	}
	if dest == "" {
		if !ok {
			return "", "", &MissingArgumentError{Flag: destFlag, Hint: "destination path for " + string(kind)}
		}
		dest = rec.DestPath
	}
	return source, dest, nil
}

func runOvaToQcow2(a *app, ovaPath, outPath string) error {
	ovaPath, outPath, err := resolveConversionPaths(a.store, pathstore.OvaToQcow2, ovaPath, outPath, "ova", "out")
	if err != nil {
		return err
	}

	ctx, cancel := a.commandContext()
	defer cancel()

	if err := a.conv.OvaToQcow2(ctx, ovaPath, outPath); err != nil {
		return err
	}

	if err := a.store.Put(pathstore.OvaToQcow2, ovaPath, outPath); err != nil {
		return err
	}
	a.logger.Debug("remembered conversion paths",
		zap.String("kind", string(pathstore.OvaToQcow2)),
		zap.String("source", ovaPath),
		zap.String("dest", outPath))

	a.printf("Conversion complete: %s -> %s\n", ovaPath, outPath)
	return nil
}

func runQcow2ToOva(a *app, qcow2Path, outPath, vmName string) error {
	if vmName == "" {
		return &MissingArgumentError{Flag: "name", Hint: "VM name for the OVF descriptor"}
	}

	qcow2Path, outPath, err := resolveConversionPaths(a.store, pathstore.Qcow2ToOva, qcow2Path, outPath, "qcow2", "out")
	if err != nil {
		return err
	}

	ctx, cancel := a.commandContext()
	defer cancel()

	if err := a.conv.Qcow2ToOva(ctx, qcow2Path, outPath, vmName); err != nil {
		return err
	}

	if err := a.store.Put(pathstore.Qcow2ToOva, qcow2Path, outPath); err != nil {
		return err
	}
	a.logger.Debug("remembered conversion paths",
		zap.String("kind", string(pathstore.Qcow2ToOva)),
		zap.String("source", qcow2Path),
		zap.String("dest", outPath))

	a.printf("Conversion complete: %s -> %s\n", qcow2Path, outPath)
	return nil
}
