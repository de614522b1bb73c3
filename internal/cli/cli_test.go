package cli

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"virtadm/internal/config"
	"virtadm/internal/convert"
	"virtadm/internal/netcompat"
	"virtadm/internal/pathstore"
	"virtadm/internal/testutil"
	"virtadm/internal/toolrun"
	"virtadm/internal/virt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newTestApp builds an app with an in-memory store, a fake runner, and
// temp-dir file targets.
func newTestApp(t *testing.T, runner *testutil.FakeRunner) (*app, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		StorePath:  filepath.Join(dir, "paths.db"),
		HostsPath:  filepath.Join(dir, "hosts"),
		NetplanDir: filepath.Join(dir, "netplan"),
		VirshBin:   "virsh",
		QemuImgBin: "qemu-img",
	}

	out := &bytes.Buffer{}
	return &app{
		cfg:    cfg,
		logger: zap.NewNop(),
		store:  pathstore.NewMemoryStore(),
		virt:   virt.NewClient(runner, cfg.VirshBin, nil),
		conv:   convert.NewConverter(runner, cfg.QemuImgBin, nil),
		out:    out,
	}, out
}

// writeOVAFixture creates a minimal OVA tar containing one VMDK member.
func writeOVAFixture(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	content := []byte("vmdk-bytes")
	if err := tw.WriteHeader(&tar.Header{Name: "disk.vmdk", Mode: 0644, Size: int64(len(content))}); err != nil {
		t.Fatalf("fixture header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("fixture member: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("fixture close: %v", err)
	}
}

func TestResolveConversionPaths(t *testing.T) {
	stored := pathstore.NewMemoryStore()
	if err := stored.Put(pathstore.OvaToQcow2, "/saved/in.ova", "/saved/out.qcow2"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	tests := []struct {
		name        string
		store       pathstore.Store
		source      string
		dest        string
		wantSource  string
		wantDest    string
		wantMissing string
	}{
		{
			name:       "both flags given",
			store:      pathstore.NewMemoryStore(),
			source:     "/a.ova",
			dest:       "/a.qcow2",
			wantSource: "/a.ova",
			wantDest:   "/a.qcow2",
		},
		{
			name:        "no flags, empty store",
			store:       pathstore.NewMemoryStore(),
			wantMissing: "ova",
		},
		{
			name:        "dest only, empty store",
			store:       pathstore.NewMemoryStore(),
			dest:        "/a.qcow2",
			wantMissing: "ova",
		},
		{
			name:        "source only, empty store",
			store:       pathstore.NewMemoryStore(),
			source:      "/a.ova",
			wantMissing: "out",
		},
		{
			name:       "no flags, stored record",
			store:      stored,
			wantSource: "/saved/in.ova",
			wantDest:   "/saved/out.qcow2",
		},
		{
			name:       "source flag beats stored source",
			store:      stored,
			source:     "/new/in.ova",
			wantSource: "/new/in.ova",
			wantDest:   "/saved/out.qcow2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, dest, err := resolveConversionPaths(tt.store, pathstore.OvaToQcow2, tt.source, tt.dest, "ova", "out")

			if tt.wantMissing != "" {
				var missing *MissingArgumentError
				if !errors.As(err, &missing) {
					t.Fatalf("error = %v, want *MissingArgumentError", err)
				}
				if missing.Flag != tt.wantMissing {
					t.Errorf("missing flag = %q, want %q", missing.Flag, tt.wantMissing)
				}
				return
			}

			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if source != tt.wantSource || dest != tt.wantDest {
				t.Errorf("resolved (%q, %q), want (%q, %q)", source, dest, tt.wantSource, tt.wantDest)
			}
		})
	}
}

func TestOvaToQcow2MissingArgumentInvokesNoTool(t *testing.T) {
	runner := &testutil.FakeRunner{}
	a, _ := newTestApp(t, runner)

	err := runOvaToQcow2(a, "", "")
	var missing *MissingArgumentError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want *MissingArgumentError", err)
	}
	if runner.CallCount() != 0 {
		t.Errorf("%d tool calls made before argument resolution failed", runner.CallCount())
	}
}

func TestOvaToQcow2RemembersPathsOnSuccess(t *testing.T) {
	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			if err := os.WriteFile(args[len(args)-1], []byte("qcow2"), 0644); err != nil {
				t.Fatalf("fake convert: %v", err)
			}
			return toolrun.Result{}, nil
		},
	}
	a, out := newTestApp(t, runner)

	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "in.ova")
	outPath := filepath.Join(dir, "out.qcow2")
	writeOVAFixture(t, ovaPath)

	if err := runOvaToQcow2(a, ovaPath, outPath); err != nil {
		t.Fatalf("convert: %v", err)
	}

	rec, ok, err := a.store.Get(pathstore.OvaToQcow2)
	if err != nil || !ok {
		t.Fatalf("record not stored: ok=%v err=%v", ok, err)
	}
	if rec.SourcePath != ovaPath || rec.DestPath != outPath {
		t.Errorf("stored %+v, want %s -> %s", rec, ovaPath, outPath)
	}
	if !strings.Contains(out.String(), "Conversion complete") {
		t.Errorf("missing completion message: %q", out.String())
	}
}

func TestOvaToQcow2ReusesStoredDestination(t *testing.T) {
	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			return toolrun.Result{}, nil
		},
	}
	a, _ := newTestApp(t, runner)

	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "in.ova")
	storedOut := filepath.Join(dir, "remembered.qcow2")
	writeOVAFixture(t, ovaPath)

	if err := a.store.Put(pathstore.OvaToQcow2, ovaPath, storedOut); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	if err := runOvaToQcow2(a, ovaPath, ""); err != nil {
		t.Fatalf("convert: %v", err)
	}

	call := runner.LastCall()
	if call.Args[len(call.Args)-1] != storedOut {
		t.Errorf("destination = %q, want remembered %q", call.Args[len(call.Args)-1], storedOut)
	}
}

func TestOvaToQcow2NoStoreWriteOnFailure(t *testing.T) {
	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			return toolrun.Result{}, &toolrun.ExecError{Name: name, Args: args, ExitCode: 1, Stderr: "boom"}
		},
	}
	a, _ := newTestApp(t, runner)

	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "in.ova")
	writeOVAFixture(t, ovaPath)

	if err := runOvaToQcow2(a, ovaPath, filepath.Join(dir, "out.qcow2")); err == nil {
		t.Fatal("conversion should fail")
	}

	if _, ok, _ := a.store.Get(pathstore.OvaToQcow2); ok {
		t.Error("failed conversion should not be remembered")
	}
}

func TestQcow2ToOvaRequiresName(t *testing.T) {
	runner := &testutil.FakeRunner{}
	a, _ := newTestApp(t, runner)

	err := runQcow2ToOva(a, "/vm.qcow2", "/vm.ova", "")
	var missing *MissingArgumentError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want *MissingArgumentError", err)
	}
	if missing.Flag != "name" {
		t.Errorf("missing flag = %q, want name", missing.Flag)
	}
	if runner.CallCount() != 0 {
		t.Errorf("no tool should run without a VM name")
	}
}

func TestNetCompatValidationBeforeWrite(t *testing.T) {
	a, _ := newTestApp(t, &testutil.FakeRunner{})

	req := &netcompat.Request{
		Distro:  netcompat.Ubuntu,
		Mode:    netcompat.Static,
		Index:   3,
		Gateway: "192.168.122.1",
	}

	err := runNetCompat(a, req)
	var vErr *netcompat.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if vErr.Field != "ip-cidr" {
		t.Errorf("field = %q, want ip-cidr", vErr.Field)
	}

	if entries, _ := os.ReadDir(a.cfg.NetplanDir); len(entries) != 0 {
		t.Error("no file should be written when validation fails")
	}
}

func TestNetCompatDebianWritesHostsBlock(t *testing.T) {
	a, out := newTestApp(t, &testutil.FakeRunner{})

	req := &netcompat.Request{Distro: netcompat.Debian, Mode: netcompat.DHCP, Index: 3}
	if err := runNetCompat(a, req); err != nil {
		t.Fatalf("net compat: %v", err)
	}

	data, err := os.ReadFile(a.cfg.HostsPath)
	if err != nil {
		t.Fatalf("read hosts: %v", err)
	}
	if !strings.Contains(string(data), "127.0.1.1 ens3") {
		t.Errorf("hosts block missing alias:\n%s", data)
	}
	if !strings.Contains(out.String(), a.cfg.HostsPath) {
		t.Errorf("output should name the written file: %q", out.String())
	}
}

func TestNetCompatUbuntuWritesFragment(t *testing.T) {
	a, _ := newTestApp(t, &testutil.FakeRunner{})

	req := &netcompat.Request{
		Distro:  netcompat.Ubuntu,
		Mode:    netcompat.Static,
		Index:   9,
		IPCIDR:  "192.168.122.50/24",
		Gateway: "192.168.122.1",
		DNS:     []string{"1.1.1.1", "8.8.8.8"},
	}
	if err := runNetCompat(a, req); err != nil {
		t.Fatalf("net compat: %v", err)
	}

	entries, err := os.ReadDir(a.cfg.NetplanDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("want one fragment, got %d (err=%v)", len(entries), err)
	}
	if !strings.HasPrefix(entries[0].Name(), "99-virtadm-") {
		t.Errorf("fragment name = %q, want 99-virtadm- prefix", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(a.cfg.NetplanDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read fragment: %v", err)
	}
	for _, want := range []string{"192.168.122.50/24", "192.168.122.1", "1.1.1.1", "8.8.8.8"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("fragment missing %q:\n%s", want, data)
		}
	}
}

func TestPathsOutput(t *testing.T) {
	a, out := newTestApp(t, &testutil.FakeRunner{})

	if err := runPaths(a); err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(out.String(), "No conversion paths") {
		t.Errorf("empty store message missing: %q", out.String())
	}

	out.Reset()
	if err := a.store.Put(pathstore.Qcow2ToOva, "/vm.qcow2", "/vm.ova"); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := runPaths(a); err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(out.String(), "/vm.qcow2 -> /vm.ova") {
		t.Errorf("record line missing: %q", out.String())
	}
}

func TestSkipWiring(t *testing.T) {
	root := &cobra.Command{Use: "virtadm"}
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	completion.AddCommand(bash)
	list := &cobra.Command{Use: "list"}
	root.AddCommand(completion, list)

	tests := []struct {
		cmd  *cobra.Command
		want bool
	}{
		{completion, true},
		{bash, true}, // completion subcommand, Name() is the shell
		{list, false},
		{root, false},
	}
	for _, tt := range tests {
		if got := skipWiring(tt.cmd); got != tt.want {
			t.Errorf("skipWiring(%s) = %v, want %v", tt.cmd.Name(), got, tt.want)
		}
	}
}

func TestNetCompatRequestDNSParsing(t *testing.T) {
	ncDistro, ncMode, ncIndex = "ubuntu", "dhcp", 3
	ncIPCIDR, ncGateway = "", ""
	ncDNS = " 1.1.1.1, 8.8.8.8 ,"
	t.Cleanup(func() { ncDNS = "" })

	req := netCompatRequest()
	if len(req.DNS) != 2 || req.DNS[0] != "1.1.1.1" || req.DNS[1] != "8.8.8.8" {
		t.Errorf("dns = %v, want [1.1.1.1 8.8.8.8]", req.DNS)
	}
}
