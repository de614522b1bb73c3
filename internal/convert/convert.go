// Package convert implements the OVA to QCOW2 and QCOW2 to OVA pipelines.
// Disk format conversion itself is delegated to qemu-img; this package
// handles the OVA tar envelope and the OVF descriptor.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"virtadm/internal/toolrun"

	"go.uber.org/zap"
)

// Converter runs image conversions through qemu-img.
type Converter struct {
	runner toolrun.Runner
	bin    string
	logger *zap.Logger
}

// NewConverter returns a Converter using the given runner and qemu-img
// binary name.
func NewConverter(runner toolrun.Runner, bin string, logger *zap.Logger) *Converter {
	if bin == "" {
		bin = "qemu-img"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{runner: runner, bin: bin, logger: logger}
}

// OvaToQcow2 extracts the disk image from the OVA at ovaPath and converts it
// to a QCOW2 image at outPath. A failed conversion may leave a partial
// output file in place; the returned error says so when one is detected.
func (c *Converter) OvaToQcow2(ctx context.Context, ovaPath, outPath string) error {
	tmpDir, err := os.MkdirTemp("", "virtadm-ova-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	diskPath, err := extractOVA(ovaPath, tmpDir)
	if err != nil {
		return err
	}
	c.logger.Debug("extracted disk from OVA",
		zap.String("ova", ovaPath),
		zap.String("disk", filepath.Base(diskPath)))

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if _, err := c.runner.Run(ctx, c.bin, "convert", "-O", "qcow2", diskPath, outPath); err != nil {
		return c.noteLeftover(err, outPath)
	}
	return nil
}

// Qcow2ToOva converts the QCOW2 image at qcow2Path into an OVA at outPath.
// vmName names the virtual system in the generated OVF descriptor.
func (c *Converter) Qcow2ToOva(ctx context.Context, qcow2Path, outPath, vmName string) error {
	tmpDir, err := os.MkdirTemp("", "virtadm-qcow2-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	vmdkName := vmName + ".vmdk"
	ovfName := vmName + ".ovf"
	vmdkPath := filepath.Join(tmpDir, vmdkName)
	ovfPath := filepath.Join(tmpDir, ovfName)

	_, err = c.runner.Run(ctx, c.bin,
		"convert", "-O", "vmdk", "-o", "subformat=streamOptimized",
		qcow2Path, vmdkPath)
	if err != nil {
		return err
	}

	capacity, err := c.virtualSize(ctx, qcow2Path)
	if err != nil {
		return err
	}

	vmdkInfo, err := os.Stat(vmdkPath)
	if err != nil {
		return fmt.Errorf("stat converted VMDK: %w", err)
	}

	ovf := renderOVF(vmName, vmdkName, vmdkInfo.Size(), capacity)
	if err := os.WriteFile(ovfPath, []byte(ovf), 0644); err != nil {
		return fmt.Errorf("write OVF descriptor: %w", err)
	}

	if err := writeOVA(outPath, ovfPath, vmdkPath); err != nil {
		return c.noteLeftover(err, outPath)
	}
	return nil
}

// virtualSize reads the guest-visible disk size via qemu-img info. JSON
// parsing of tool output stays inside this package.
func (c *Converter) virtualSize(ctx context.Context, imagePath string) (int64, error) {
	res, err := c.runner.Run(ctx, c.bin, "info", "--output=json", imagePath)
	if err != nil {
		return 0, err
	}

	var info struct {
		VirtualSize int64 `json:"virtual-size"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return 0, fmt.Errorf("parse qemu-img info output: %w", err)
	}
	return info.VirtualSize, nil
}

// noteLeftover annotates a conversion failure when a partial output file
// remains on disk. Nothing is rolled back.
func (c *Converter) noteLeftover(err error, outPath string) error {
	if info, statErr := os.Stat(outPath); statErr == nil && info.Size() > 0 {
		return fmt.Errorf("%w (partial output left at %s)", err, outPath)
	}
	return err
}
