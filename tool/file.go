package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomlabs/loom"
)

// FileToolOption configures file tools.
type FileToolOption func(*fileToolConfig)

type fileToolConfig struct {
	basePath          string
	allowedExtensions []string
	maxFileSize       int64
}

// WithBasePath restricts file operations to a specific directory.
// All paths will be resolved relative to this base path.
func WithBasePath(path string) FileToolOption {
	return func(c *fileToolConfig) {
		c.basePath = path
	}
}

// WithAllowedExtensions restricts file operations to specific file extensions.
func WithAllowedExtensions(exts ...string) FileToolOption {
	return func(c *fileToolConfig) {
		c.allowedExtensions = exts
	}
}

// WithMaxFileSize sets the maximum file size for read/write operations.
// Default is 10MB.
func WithMaxFileSize(bytes int64) FileToolOption {
	return func(c *fileToolConfig) {
		c.maxFileSize = bytes
	}
}

func applyFileOpts(opts []FileToolOption) *fileToolConfig {
	cfg := &fileToolConfig{
		maxFileSize: 10 * 1024 * 1024, // 10MB default
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *fileToolConfig) resolvePath(path string) (string, error) {
	path = filepath.Clean(path)

	if c.basePath != "" {
		basePath := filepath.Clean(c.basePath)
		fullPath := filepath.Join(basePath, path)

		// Ensure the resolved path is still within the base path.
		rel, err := filepath.Rel(basePath, fullPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("path %q is outside base path %q", path, basePath)
		}
		path = fullPath
	}

	return path, nil
}

func (c *fileToolConfig) checkExtension(path string) error {
	if len(c.allowedExtensions) == 0 {
		return nil
	}

	ext := filepath.Ext(path)
	for _, allowed := range c.allowedExtensions {
		if ext == allowed || ext == "."+allowed {
			return nil
		}
	}

	return fmt.Errorf("extension %q not allowed", ext)
}

type readFileArgs struct {
	Path string `json:"path" desc:"Path of the file to read" required:"true"`
}

// NewReadFileTool creates a tool that reads the contents of a file.
func NewReadFileTool(opts ...FileToolOption) (loom.Definition, Handler) {
	cfg := applyFileOpts(opts)

	return MustBind("read_file",
		"Read the contents of a file at the given path. Returns the full file content as text.",
		func(ctx context.Context, args readFileArgs) (string, error) {
			path, err := cfg.resolvePath(args.Path)
			if err != nil {
				return "", err
			}
			if err := cfg.checkExtension(path); err != nil {
				return "", err
			}

			info, err := os.Stat(path)
			if err != nil {
				return "", err
			}
			if info.IsDir() {
				return "", fmt.Errorf("%q is a directory", args.Path)
			}
			if info.Size() > cfg.maxFileSize {
				return "", fmt.Errorf("file size %d exceeds maximum %d", info.Size(), cfg.maxFileSize)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		})
}

type writeFileArgs struct {
	Path    string `json:"path" desc:"Path of the file to write" required:"true"`
	Content string `json:"content" desc:"Content to write to the file" required:"true"`
}

// NewWriteFileTool creates a tool that writes content to a file,
// creating parent directories as needed. The tool is marked dangerous.
func NewWriteFileTool(opts ...FileToolOption) (loom.Definition, Handler) {
	cfg := applyFileOpts(opts)

	def, h := MustBind("write_file",
		"Write content to a file at the given path, creating it if it does not exist and overwriting it if it does. Parent directories are created as needed.",
		func(ctx context.Context, args writeFileArgs) (string, error) {
			path, err := cfg.resolvePath(args.Path)
			if err != nil {
				return "", err
			}
			if err := cfg.checkExtension(path); err != nil {
				return "", err
			}
			if int64(len(args.Content)) > cfg.maxFileSize {
				return "", fmt.Errorf("content size %d exceeds maximum %d", len(args.Content), cfg.maxFileSize)
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return "", err
				}
			}
			if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(args.Content), args.Path), nil
		})
	def.Dangerous = true
	return def, h
}

type listFilesArgs struct {
	Path string `json:"path" desc:"Directory to list, defaults to the current directory"`
}

// NewListFilesTool creates a tool that lists the entries of a directory.
func NewListFilesTool(opts ...FileToolOption) (loom.Definition, Handler) {
	cfg := applyFileOpts(opts)

	return MustBind("list_files",
		"List the entries of a directory. Directories are suffixed with a slash; files include their size in bytes.",
		func(ctx context.Context, args listFilesArgs) (string, error) {
			dir := args.Path
			if dir == "" {
				dir = "."
			}
			path, err := cfg.resolvePath(dir)
			if err != nil {
				return "", err
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return "(empty directory)", nil
			}

			var b strings.Builder
			for _, entry := range entries {
				if entry.IsDir() {
					fmt.Fprintf(&b, "%s/\n", entry.Name())
					continue
				}
				info, err := entry.Info()
				if err != nil {
					fmt.Fprintf(&b, "%s\n", entry.Name())
					continue
				}
				fmt.Fprintf(&b, "%s\t%d\n", entry.Name(), info.Size())
			}
			return strings.TrimRight(b.String(), "\n"), nil
		})
}
