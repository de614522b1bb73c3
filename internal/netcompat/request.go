// Package netcompat generates guest network-compatibility artifacts: a
// marker-delimited hosts alias block for Debian guests and a netplan YAML
// fragment for Ubuntu guests.
package netcompat

import (
	"fmt"
	"net/netip"
)

// Distro selects the artifact family to generate.
type Distro string

const (
	Debian Distro = "debian"
	Ubuntu Distro = "ubuntu"
)

// Mode selects interface addressing.
type Mode string

const (
	DHCP   Mode = "dhcp"
	Static Mode = "static"
)

// Request holds the validated parameters for one generation run.
type Request struct {
	Distro  Distro
	Mode    Mode
	Index   int
	IPCIDR  string
	Gateway string
	DNS     []string
}

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError indicates a generated artifact could not be read or written.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("write compat config %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// InterfaceName returns the predictable interface name for the index.
func (r *Request) InterfaceName() string {
	return fmt.Sprintf("ens%d", r.Index)
}

// LegacyName returns the legacy alias name for the index.
func (r *Request) LegacyName() string {
	return fmt.Sprintf("enp0%d", r.Index)
}

// Validate checks the request before any artifact text is generated.
// Static mode requires a well-formed IP/CIDR and gateway; DNS entries, when
// present, must each be a valid IP address in either mode.
func (r *Request) Validate() error {
	switch r.Distro {
	case Debian, Ubuntu:
	default:
		return &ValidationError{Field: "distro", Reason: fmt.Sprintf("must be %q or %q", Debian, Ubuntu)}
	}

	switch r.Mode {
	case DHCP, Static:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("must be %q or %q", DHCP, Static)}
	}

	if r.Index < 1 || r.Index > 99 {
		return &ValidationError{Field: "index", Reason: "must be between 1 and 99"}
	}

	if r.Mode == Static {
		if r.IPCIDR == "" {
			return &ValidationError{Field: "ip-cidr", Reason: "required in static mode"}
		}
		if _, err := netip.ParsePrefix(r.IPCIDR); err != nil {
			return &ValidationError{Field: "ip-cidr", Reason: fmt.Sprintf("%q is not a valid IP/CIDR", r.IPCIDR)}
		}
		if r.Gateway == "" {
			return &ValidationError{Field: "gateway", Reason: "required in static mode"}
		}
		if _, err := netip.ParseAddr(r.Gateway); err != nil {
			return &ValidationError{Field: "gateway", Reason: fmt.Sprintf("%q is not a valid IP address", r.Gateway)}
		}
	} else {
		// Static-only fields are optional in dhcp mode but still syntax-checked.
		if r.IPCIDR != "" {
			if _, err := netip.ParsePrefix(r.IPCIDR); err != nil {
				return &ValidationError{Field: "ip-cidr", Reason: fmt.Sprintf("%q is not a valid IP/CIDR", r.IPCIDR)}
			}
		}
		if r.Gateway != "" {
			if _, err := netip.ParseAddr(r.Gateway); err != nil {
				return &ValidationError{Field: "gateway", Reason: fmt.Sprintf("%q is not a valid IP address", r.Gateway)}
			}
		}
	}

	for _, addr := range r.DNS {
		if _, err := netip.ParseAddr(addr); err != nil {
			return &ValidationError{Field: "dns", Reason: fmt.Sprintf("%q is not a valid IP address", addr)}
		}
	}

	return nil
}
