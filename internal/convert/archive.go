package convert

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidArchivePath is returned when an OVA member has a path that would
// escape the extraction directory.
var ErrInvalidArchivePath = errors.New("invalid archive member path")

// ErrNoDiskInArchive is returned when the OVA contains no recognizable disk image.
var ErrNoDiskInArchive = errors.New("no compatible disk image found inside OVA archive")

// diskExtensions are the disk image member types recognized inside an OVA,
// in preference order.
var diskExtensions = []string{".vmdk", ".qcow2", ".img"}

// extractOVA unpacks the plain-tar OVA at ovaPath into destDir and returns
// the path of the first disk image member found, by extension preference.
func extractOVA(ovaPath, destDir string) (string, error) {
	f, err := os.Open(ovaPath)
	if err != nil {
		return "", fmt.Errorf("open OVA: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read OVA member: %w", err)
		}

		targetPath, err := sanitizePath(destDir, header.Name)
		if err != nil {
			return "", err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return "", fmt.Errorf("create dir %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return "", fmt.Errorf("create parent dir: %w", err)
			}
			out, err := os.Create(targetPath)
			if err != nil {
				return "", fmt.Errorf("create file %s: %w", header.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", fmt.Errorf("extract %s: %w", header.Name, err)
			}
			out.Close()
		default:
			// OVA archives only carry plain files; skip anything else.
		}
	}

	return findDiskImage(destDir)
}

// findDiskImage returns the first extracted disk image by extension preference.
func findDiskImage(dir string) (string, error) {
	for _, ext := range diskExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", ErrNoDiskInArchive
}

// writeOVA creates a plain tar archive at ovaPath containing the named files
// in order, each stored under its base name. The OVF descriptor must come
// first per the OVA convention.
func writeOVA(ovaPath string, members ...string) error {
	if err := os.MkdirAll(filepath.Dir(ovaPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	out, err := os.Create(ovaPath)
	if err != nil {
		return fmt.Errorf("create OVA: %w", err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	for _, member := range members {
		if err := addTarMember(tw, member); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize OVA: %w", err)
	}
	return nil
}

func addTarMember(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open member %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat member %s: %w", path, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("member header %s: %w", path, err)
	}
	header.Name = filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write member header %s: %w", path, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write member %s: %w", path, err)
	}
	return nil
}

// sanitizePath validates a member name and returns a safe path within destDir.
func sanitizePath(destDir, name string) (string, error) {
	name = filepath.Clean(name)
	if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidArchivePath, name)
	}

	target := filepath.Join(destDir, name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidArchivePath, name)
	}
	return target, nil
}
