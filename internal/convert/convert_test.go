package convert

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"virtadm/internal/testutil"
	"virtadm/internal/toolrun"
)

// writeTar creates a tar file at path with the given member names and contents.
func writeTar(t *testing.T, path string, members map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tar: %v", err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	for name, content := range members {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write member %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
}

// readTarMembers returns the member names of the tar at path, in order.
func readTarMembers(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open tar: %v", err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		names = append(names, hdr.Name)
	}
	return names
}

func TestOvaToQcow2(t *testing.T) {
	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "appliance.ova")
	outPath := filepath.Join(dir, "out", "disk.qcow2")
	writeTar(t, ovaPath, map[string]string{
		"appliance.ovf":  "<Envelope/>",
		"appliance.vmdk": "vmdk-bytes",
	})

	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			// qemu-img convert -O qcow2 <src> <dst>
			if err := os.WriteFile(args[len(args)-1], []byte("qcow2-bytes"), 0644); err != nil {
				t.Fatalf("fake convert: %v", err)
			}
			return toolrun.Result{}, nil
		},
	}
	c := NewConverter(runner, "qemu-img", nil)

	if err := c.OvaToQcow2(context.Background(), ovaPath, outPath); err != nil {
		t.Fatalf("convert: %v", err)
	}

	if runner.CallCount() != 1 {
		t.Fatalf("got %d tool calls, want 1", runner.CallCount())
	}
	call := runner.LastCall()
	if call.Name != "qemu-img" || call.Args[0] != "convert" || call.Args[2] != "qcow2" {
		t.Errorf("unexpected call: %+v", call)
	}
	if !strings.HasSuffix(call.Args[3], ".vmdk") {
		t.Errorf("source should be the extracted VMDK, got %q", call.Args[3])
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output image missing: %v", err)
	}
}

func TestOvaToQcow2NoDiskMember(t *testing.T) {
	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "empty.ova")
	writeTar(t, ovaPath, map[string]string{"notes.txt": "no disks here"})

	runner := &testutil.FakeRunner{}
	c := NewConverter(runner, "qemu-img", nil)

	err := c.OvaToQcow2(context.Background(), ovaPath, filepath.Join(dir, "out.qcow2"))
	if !errors.Is(err, ErrNoDiskInArchive) {
		t.Errorf("error = %v, want ErrNoDiskInArchive", err)
	}
	if runner.CallCount() != 0 {
		t.Errorf("no tool should be invoked without a disk member")
	}
}

func TestOvaToQcow2RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "evil.ova")
	writeTar(t, ovaPath, map[string]string{"../evil.vmdk": "nope"})

	c := NewConverter(&testutil.FakeRunner{}, "qemu-img", nil)

	err := c.OvaToQcow2(context.Background(), ovaPath, filepath.Join(dir, "out.qcow2"))
	if !errors.Is(err, ErrInvalidArchivePath) {
		t.Errorf("error = %v, want ErrInvalidArchivePath", err)
	}
}

func TestQcow2ToOva(t *testing.T) {
	dir := t.TempDir()
	qcow2Path := filepath.Join(dir, "vm.qcow2")
	outPath := filepath.Join(dir, "export", "vm.ova")
	if err := os.WriteFile(qcow2Path, []byte("qcow2-bytes"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			switch args[0] {
			case "convert":
				if err := os.WriteFile(args[len(args)-1], []byte("stream-optimized-vmdk"), 0644); err != nil {
					t.Fatalf("fake convert: %v", err)
				}
				return toolrun.Result{}, nil
			case "info":
				return toolrun.Result{Stdout: `{"virtual-size": 21474836480, "format": "qcow2"}`}, nil
			}
			t.Fatalf("unexpected qemu-img op %q", args[0])
			return toolrun.Result{}, nil
		},
	}
	c := NewConverter(runner, "qemu-img", nil)

	if err := c.Qcow2ToOva(context.Background(), qcow2Path, outPath, "webvm"); err != nil {
		t.Fatalf("convert: %v", err)
	}

	members := readTarMembers(t, outPath)
	want := []string{"webvm.ovf", "webvm.vmdk"}
	if len(members) != 2 || members[0] != want[0] || members[1] != want[1] {
		t.Fatalf("OVA members = %v, want %v (descriptor first)", members, want)
	}
}

func TestQcow2ToOvaDescriptorContents(t *testing.T) {
	ovf := renderOVF("webvm", "webvm.vmdk", 1234, 21474836480)

	for _, want := range []string{
		`ovf:href="webvm.vmdk"`,
		`ovf:size="1234"`,
		`ovf:capacity="21474836480"`,
		`<VirtualSystem ovf:id="webvm">`,
		"streamOptimized",
	} {
		if !strings.Contains(ovf, want) {
			t.Errorf("descriptor missing %q", want)
		}
	}

	// Disk IDs must differ between exports.
	if renderOVF("a", "a.vmdk", 1, 1) == renderOVF("a", "a.vmdk", 1, 1) {
		t.Error("disk IDs should be unique per descriptor")
	}
}

func TestOvaToQcow2ReportsPartialOutput(t *testing.T) {
	dir := t.TempDir()
	ovaPath := filepath.Join(dir, "appliance.ova")
	outPath := filepath.Join(dir, "out.qcow2")
	writeTar(t, ovaPath, map[string]string{"disk.vmdk": "vmdk-bytes"})

	runner := &testutil.FakeRunner{
		Handler: func(name string, args []string) (toolrun.Result, error) {
			// Fail after writing half an output file, as a crashed tool would.
			if err := os.WriteFile(outPath, []byte("partial"), 0644); err != nil {
				t.Fatalf("fake partial write: %v", err)
			}
			return toolrun.Result{}, &toolrun.ExecError{Name: name, Args: args, ExitCode: 1, Stderr: "i/o error"}
		},
	}
	c := NewConverter(runner, "qemu-img", nil)

	err := c.OvaToQcow2(context.Background(), ovaPath, outPath)
	if err == nil {
		t.Fatal("conversion should fail")
	}
	if !strings.Contains(err.Error(), "partial output left at") {
		t.Errorf("error should mention the partial output file: %v", err)
	}

	var execErr *toolrun.ExecError
	if !errors.As(err, &execErr) {
		t.Errorf("underlying ExecError should be preserved, got %T", err)
	}
}
