package netcompat

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// netplanDoc is the generated netplan fragment. The 99- filename prefix
// gives the fragment override precedence over distribution defaults.
type netplanDoc struct {
	Network netplanNetwork `yaml:"network"`
}

type netplanNetwork struct {
	Version   int                     `yaml:"version"`
	Renderer  string                  `yaml:"renderer"`
	Ethernets map[string]netplanIface `yaml:"ethernets"`
}

type netplanIface struct {
	DHCP4       bool                `yaml:"dhcp4"`
	Optional    bool                `yaml:"optional,omitempty"`
	Addresses   []string            `yaml:"addresses,omitempty"`
	Routes      []netplanRoute      `yaml:"routes,omitempty"`
	Nameservers *netplanNameservers `yaml:"nameservers,omitempty"`
}

type netplanRoute struct {
	To  string `yaml:"to"`
	Via string `yaml:"via"`
}

type netplanNameservers struct {
	Addresses []string `yaml:"addresses"`
}

// NetplanDocument renders the netplan YAML for the request. The primary
// interface follows the requested mode; the legacy alias interface stays on
// optional DHCP so boot does not block on it.
func NetplanDocument(r *Request) (string, error) {
	primary := netplanIface{DHCP4: r.Mode == DHCP}
	if r.Mode == Static {
		primary.Addresses = []string{r.IPCIDR}
		primary.Routes = []netplanRoute{{To: "default", Via: r.Gateway}}
	}
	if len(r.DNS) > 0 {
		primary.Nameservers = &netplanNameservers{Addresses: r.DNS}
	}

	doc := netplanDoc{
		Network: netplanNetwork{
			Version:  2,
			Renderer: "networkd",
			Ethernets: map[string]netplanIface{
				r.InterfaceName(): primary,
				r.LegacyName():    {DHCP4: true, Optional: true},
			},
		},
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("render netplan YAML: %w", err)
	}
	return string(out), nil
}

// NetplanFileName returns a fragment file name with a random suffix so
// repeated runs do not collide with other generated fragments.
func NetplanFileName() (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate file suffix: %w", err)
	}
	return fmt.Sprintf("99-virtadm-%s.yaml", hex.EncodeToString(suffix)), nil
}

// WriteNetplan renders the request's fragment into dir and returns the path
// written.
func WriteNetplan(dir string, r *Request) (string, error) {
	content, err := NetplanDocument(r)
	if err != nil {
		return "", err
	}

	name, err := NetplanFileName()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Err: err}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	return path, nil
}
