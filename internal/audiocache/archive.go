package audiocache

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Archive writes every cache entry into a tar.gz at dest, so a populated
// cache can move between machines or CI runs.
func (c *Cache) Archive(dest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != audioExt && ext != metaExt) {
			continue
		}
		if err := c.archiveFile(tw, e.Name()); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return f.Close()
}

func (c *Cache) archiveFile(tw *tar.Writer, name string) error {
	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}
	return nil
}

// Restore unpacks a tar.gz produced by Archive into the cache directory,
// overwriting colliding entries. Entries with path separators are rejected.
func (c *Cache) Restore(src string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		name := hdr.Name
		if strings.Contains(name, "/") || strings.Contains(name, "\\") || name != filepath.Base(name) {
			return fmt.Errorf("archive entry %q escapes the cache directory", name)
		}
		ext := filepath.Ext(name)
		if ext != audioExt && ext != metaExt {
			continue
		}

		out, err := os.Create(filepath.Join(c.dir, name))
		if err != nil {
			return fmt.Errorf("restoring %s: %w", name, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("restoring %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("restoring %s: %w", name, err)
		}
	}
}
