// Package archive builds compressed archives of entry directories and
// checks existing archives for integrity.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"snapkeep/internal/logging"
	"snapkeep/internal/work"
)

// DefaultSuffix is appended to an entry directory to name its archive.
const DefaultSuffix = ".tar.gz"

// TarGzBuilder writes <dir><suffix> beside each source directory. The
// archive's internal root is the base name of the source.
type TarGzBuilder struct {
	Suffix string
}

// NewTarGzBuilder returns a builder using suffix, or DefaultSuffix if empty.
func NewTarGzBuilder(suffix string) *TarGzBuilder {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &TarGzBuilder{Suffix: suffix}
}

// Apply builds the archive for item. It implements the coordinator's action
// contract.
func (b *TarGzBuilder) Apply(ctx context.Context, item string) work.Outcome {
	return b.Build(ctx, item)
}

// Build archives dir. The archive is written to a temporary file and renamed
// into place, so a failed build never leaves a partial archive under the
// final name.
func (b *TarGzBuilder) Build(ctx context.Context, dir string) work.Outcome {
	name := filepath.Base(dir) + b.Suffix
	target := dir + b.Suffix
	timer := logging.StartTimer(logging.CategoryArchive, "build "+name)
	defer timer.Stop()

	if err := b.write(ctx, dir, target); err != nil {
		logging.ArchiveError("build %s failed: %v", name, err)
		return work.Failed(dir, fmt.Sprintf("*** FAILED TO CREATE %s: %v ***", name, err))
	}
	logging.Archive("created %s", target)
	return work.OK(dir, fmt.Sprintf("Created %s OK", name))
}

func (b *TarGzBuilder) write(ctx context.Context, dir, target string) (err error) {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	partial := target + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(partial)
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	if err = addTree(ctx, tw, dir); err != nil {
		return err
	}
	if err = tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}
	if err = gz.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(partial, target)
}

// addTree writes dir and everything below it, rooted at filepath.Base(dir).
func addTree(ctx context.Context, tw *tar.Writer, dir string) error {
	parent := filepath.Dir(dir)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("header for %s: %w", path, err)
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %s: %w", hdr.Name, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(tw, src); err != nil {
			return fmt.Errorf("copy %s: %w", path, err)
		}
		logging.ArchiveDebug("added %s (%d bytes)", hdr.Name, hdr.Size)
		return nil
	})
}
