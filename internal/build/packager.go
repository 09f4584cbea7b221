// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"archive/tar"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/estimate"
	"github.com/microbeam/microbeam/internal/initramfs"
)

// BundleName returns the deterministic bundle file name for the given
// config, e.g. "microbeam-custom.tar.xz".
func BundleName(cfg config.Config) string {
	return "microbeam-" + cfg.Type.String() + ".tar" + cfg.Compression.Ext()
}

// Package bundles the strategy output files into a single compressed tar
// archive in outDir and returns the resulting [Artifact].
//
// The bundle is written to a temporary name and renamed into place only
// once complete, so a failed run never leaves a partial file at the final
// path.
func Package(
	cfg config.Config,
	output *Output,
	outDir string,
	sizeEstimate estimate.Range,
) (*Artifact, error) {
	err := os.MkdirAll(outDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	bundlePath := filepath.Join(outDir, BundleName(cfg))
	partialPath := bundlePath + ".partial"

	err = writeBundle(partialPath, output.Files, cfg.Compression)
	if err != nil {
		_ = os.Remove(partialPath)
		return nil, err
	}

	err = os.Rename(partialPath, bundlePath)
	if err != nil {
		_ = os.Remove(partialPath)
		return nil, fmt.Errorf("finalize bundle: %w", err)
	}

	info, err := os.Stat(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("stat bundle: %w", err)
	}

	metadata := map[string]string{
		"estimated_size": sizeEstimate.String(),
		"members":        strings.Join(memberNames(output.Files), ","),
	}
	maps.Copy(metadata, output.Metadata)

	return &Artifact{
		ImagePath: bundlePath,
		Type:      cfg.Type,
		SizeMB:    float64(info.Size()) / (1 << 20),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}, nil
}

func memberNames(files map[string]string) []string {
	return slices.Sorted(maps.Keys(files))
}

// writeBundle streams the member files into a compressed tar archive.
// Members are written in sorted name order so identical inputs produce
// identical archives.
func writeBundle(
	path string,
	files map[string]string,
	method config.Compression,
) error {
	out, err := os.OpenFile(
		path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644,
	)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer out.Close()

	compressor, err := initramfs.NewCompressor(out, method)
	if err != nil {
		return err
	}

	archive := tar.NewWriter(compressor)

	for _, name := range memberNames(files) {
		err := writeMember(archive, name, files[name])
		if err != nil {
			return err
		}
	}

	// Close order matters: the tar trailer must be compressed, so the
	// archive is closed before the compressor flushes.
	err = archive.Close()
	if err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	err = compressor.Close()
	if err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	return out.Close()
}

func writeMember(archive *tar.Writer, name, srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("stat member %s: %w", name, err)
	}

	header := &tar.Header{
		Name:    name,
		Mode:    int64(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	err = archive.WriteHeader(header)
	if err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}

	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open member %s: %w", name, err)
	}
	defer file.Close()

	_, err = io.Copy(archive, file)
	if err != nil {
		return fmt.Errorf("write member %s: %w", name, err)
	}

	return nil
}

// ExtractBundle unpacks a bundle into destDir and returns the member names
// mapped to their extracted paths. Members that would escape destDir are
// rejected with [ErrUnsafeBundlePath].
func ExtractBundle(
	bundlePath, destDir string,
	method config.Compression,
) (map[string]string, error) {
	file, err := os.Open(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer file.Close()

	reader, err := initramfs.NewDecompressor(file, method)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(destDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	members := make(map[string]string)
	archive := tar.NewReader(reader)

	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read bundle: %w", err)
		}

		target := filepath.Join(destDir, header.Name)
		if !filepath.IsLocal(header.Name) {
			return nil, fmt.Errorf(
				"%w: %s", ErrUnsafeBundlePath, header.Name,
			)
		}

		err = extractMember(archive, target, header)
		if err != nil {
			return nil, err
		}

		members[header.Name] = target
	}

	return members, nil
}

func extractMember(
	archive *tar.Reader,
	target string,
	header *tar.Header,
) error {
	err := os.MkdirAll(filepath.Dir(target), 0o755)
	if err != nil {
		return fmt.Errorf("create parent of %s: %w", header.Name, err)
	}

	out, err := os.OpenFile(
		target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		os.FileMode(header.Mode).Perm(),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", header.Name, err)
	}
	defer out.Close()

	_, err = io.Copy(out, archive)
	if err != nil {
		return fmt.Errorf("extract %s: %w", header.Name, err)
	}

	return out.Close()
}
