package cli

import (
	"strings"

	"virtadm/internal/netcompat"

	"github.com/spf13/cobra"
)

var netCompatCmd = &cobra.Command{
	Use:   "network-compat",
	Short: "Generate guest network compatibility config",
	Long: `Generate interface-naming compatibility configuration for a guest.

For Debian an alias block is inserted into the hosts file path, bounded by
markers so repeat runs replace it in place. For Ubuntu a netplan fragment
with a randomized 99- prefixed name is written to the netplan directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNetCompat(current, netCompatRequest())
	},
}

var (
	ncDistro  string
	ncMode    string
	ncIndex   int
	ncIPCIDR  string
	ncGateway string
	ncDNS     string
)

func init() {
	netCompatCmd.Flags().StringVar(&ncDistro, "distro", "", "Guest distribution: debian or ubuntu (required)")
	netCompatCmd.Flags().StringVar(&ncMode, "mode", "", "Addressing mode: dhcp or static (required)")
	netCompatCmd.Flags().IntVar(&ncIndex, "index", 3, "Interface index, typically 3 or 9")
	netCompatCmd.Flags().StringVar(&ncIPCIDR, "ip-cidr", "", "IP/CIDR for static mode, e.g. 192.168.122.50/24")
	netCompatCmd.Flags().StringVar(&ncGateway, "gateway", "", "Gateway IP for static mode")
	netCompatCmd.Flags().StringVar(&ncDNS, "dns", "", "Comma-separated DNS server IPs")
}

// netCompatRequest assembles the request from the parsed flags.
func netCompatRequest() *netcompat.Request {
	var dns []string
	for _, entry := range strings.Split(ncDNS, ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			dns = append(dns, trimmed)
		}
	}

	return &netcompat.Request{
		Distro:  netcompat.Distro(ncDistro),
		Mode:    netcompat.Mode(ncMode),
		Index:   ncIndex,
		IPCIDR:  ncIPCIDR,
		Gateway: ncGateway,
		DNS:     dns,
	}
}

func runNetCompat(a *app, req *netcompat.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var (
		path string
		err  error
	)
	if req.Distro == netcompat.Debian {
		path, err = netcompat.WriteHosts(a.cfg.HostsPath, req)
	} else {
		path, err = netcompat.WriteNetplan(a.cfg.NetplanDir, req)
	}
	if err != nil {
		return err
	}

	a.printf("Compatibility config written to %s\n", path)
	return nil
}
