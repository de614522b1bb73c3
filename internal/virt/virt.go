// Package virt wraps the hypervisor control tool (virsh). Parsing of its
// textual output is confined to this package.
package virt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"virtadm/internal/toolrun"

	"go.uber.org/zap"
)

// ErrNotFound indicates the VM name is not known to the hypervisor.
var ErrNotFound = errors.New("virtual machine not found")

// VMInfo is one row of the VM listing.
type VMInfo struct {
	Name   string
	State  string
	OSType string
}

// Field is one ordered key/value pair of VM details.
type Field struct {
	Key   string
	Value string
}

// Client issues virsh commands through a Runner.
type Client struct {
	runner toolrun.Runner
	bin    string
	logger *zap.Logger
}

// NewClient returns a Client using the given runner and virsh binary name.
func NewClient(runner toolrun.Runner, bin string, logger *zap.Logger) *Client {
	if bin == "" {
		bin = "virsh"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{runner: runner, bin: bin, logger: logger}
}

// List enumerates all defined VMs with their state and OS type.
func (c *Client) List(ctx context.Context) ([]VMInfo, error) {
	res, err := c.runner.Run(ctx, c.bin, "list", "--all", "--name")
	if err != nil {
		return nil, err
	}

	var vms []VMInfo
	for _, line := range strings.Split(res.Stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}

		info, err := c.domInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		vms = append(vms, VMInfo{
			Name:   name,
			State:  valueOr(info, "State", "unknown"),
			OSType: valueOr(info, "OS Type", "unknown"),
		})
	}
	return vms, nil
}

// OSDetails returns ordered details for one VM, including the guest OS type
// and architecture parsed from the domain XML.
func (c *Client) OSDetails(ctx context.Context, name string) ([]Field, error) {
	info, err := c.domInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	xmlRes, err := c.run(ctx, "dumpxml", name)
	if err != nil {
		return nil, err
	}
	osType, arch := parseDomainType(xmlRes.Stdout)

	fields := []Field{{Key: "Name", Value: name}}
	fields = append(fields, info...)
	fields = append(fields,
		Field{Key: "Guest OS", Value: osType},
		Field{Key: "Architecture", Value: arch})
	return fields, nil
}

// Validate runs the hypervisor's schema validation over the VM's XML and
// returns the reported issues. An empty slice means the config is valid.
func (c *Client) Validate(ctx context.Context, name string) ([]string, error) {
	xmlRes, err := c.run(ctx, "dumpxml", name)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "virtadm-validate-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	xmlPath := filepath.Join(tmpDir, name+".xml")
	if err := os.WriteFile(xmlPath, []byte(xmlRes.Stdout), 0644); err != nil {
		return nil, fmt.Errorf("write domain XML: %w", err)
	}

	res, err := c.runner.Run(ctx, c.bin, "domxml-validate", xmlPath)
	if err == nil {
		return nil, nil
	}

	// Non-zero exit carries the validation findings on its streams.
	var execErr *toolrun.ExecError
	if errors.As(err, &execErr) {
		return nonEmptyLines(res.Stderr + "\n" + res.Stdout), nil
	}
	return nil, err
}

// Delete undefines the VM, destroying it first if it is running. When
// removeStorage is set the VM's storage volumes are removed as well.
func (c *Client) Delete(ctx context.Context, name string, removeStorage bool) error {
	stateRes, err := c.run(ctx, "domstate", name)
	if err != nil {
		return err
	}

	if strings.Contains(strings.ToLower(stateRes.Stdout), "running") {
		// Best effort; undefine reports the real failure if this one matters.
		if _, err := c.run(ctx, "destroy", name); err != nil {
			c.logger.Debug("destroy before undefine failed", zap.String("vm", name), zap.Error(err))
		}
	}

	args := []string{"undefine", name, "--nvram"}
	if removeStorage {
		args = append(args, "--remove-all-storage")
	}
	_, err = c.run(ctx, args...)
	return err
}

// run invokes virsh and maps unknown-domain failures to ErrNotFound.
func (c *Client) run(ctx context.Context, args ...string) (toolrun.Result, error) {
	res, err := c.runner.Run(ctx, c.bin, args...)
	if err == nil {
		return res, nil
	}

	var execErr *toolrun.ExecError
	if errors.As(err, &execErr) && isUnknownDomain(execErr.Stderr) {
		return res, fmt.Errorf("%w: %s", ErrNotFound, execErr.Stderr)
	}
	return res, err
}

// isUnknownDomain matches virsh's unknown-domain diagnostics.
func isUnknownDomain(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "failed to get domain") ||
		strings.Contains(s, "domain not found")
}

// domInfo parses `virsh dominfo` colon-keyed lines in order.
func (c *Client) domInfo(ctx context.Context, name string) ([]Field, error) {
	res, err := c.run(ctx, "dominfo", name)
	if err != nil {
		return nil, err
	}

	var fields []Field
	for _, line := range strings.Split(res.Stdout, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields = append(fields, Field{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return fields, nil
}

// parseDomainType extracts the OS type and arch from the domain XML's
// <type arch="..."> element.
func parseDomainType(domainXML string) (osType, arch string) {
	osType, arch = "unknown", "unknown"
	for _, line := range strings.Split(domainXML, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "<type") || !strings.Contains(line, "</type>") {
			continue
		}
		if _, rest, ok := strings.Cut(line, ">"); ok {
			osType, _, _ = strings.Cut(rest, "</type>")
		}
		if _, rest, ok := strings.Cut(line, `arch="`); ok {
			arch, _, _ = strings.Cut(rest, `"`)
		}
		break
	}
	return osType, arch
}

func valueOr(fields []Field, key, fallback string) string {
	for _, f := range fields {
		if f.Key == key {
			return f.Value
		}
	}
	return fallback
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
