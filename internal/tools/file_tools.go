package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileTools provides read/write/edit/list capabilities restricted to a
// set of allowed directory roots.
type FileTools struct {
	roots []string
}

// NewFileTools creates file tools limited to the given roots. Each root
// is resolved to an absolute path; roots that cannot be resolved are
// dropped. With no usable roots the tools are disabled.
func NewFileTools(roots []string) *FileTools {
	ft := &FileTools{}
	for _, root := range roots {
		abs, err := filepath.Abs(os.ExpandEnv(root))
		if err != nil {
			continue
		}
		ft.roots = append(ft.roots, filepath.Clean(abs))
	}
	return ft
}

// Enabled reports whether any allowed root is configured.
func (ft *FileTools) Enabled() bool {
	return len(ft.roots) > 0
}

// resolvePath resolves a path and verifies it falls under an allowed
// root. Relative paths resolve against the first root.
func (ft *FileTools) resolvePath(path string) (string, error) {
	if len(ft.roots) == 0 {
		return "", &AccessDeniedError{Reason: "file operations are not configured"}
	}
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(ft.roots[0], path))
	}

	sep := string(filepath.Separator)
	for _, root := range ft.roots {
		// A filesystem root already ends in the separator.
		prefix := strings.TrimSuffix(root, sep) + sep
		if abs == root || strings.HasPrefix(abs, prefix) {
			return abs, nil
		}
	}
	return "", &AccessDeniedError{Reason: fmt.Sprintf("path %s is outside the allowed directories", path)}
}

// Read returns a file's contents, truncated at 50KB.
func (ft *FileTools) Read(ctx context.Context, path string) (string, error) {
	abs, err := ft.resolvePath(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("read file: %w", err)
	}

	const maxBytes = 50 * 1024
	content := string(data)
	if len(content) > maxBytes {
		content = content[:maxBytes] + "\n\n[... truncated ...]"
	}
	return content, nil
}

// Write writes content to a file, creating parent directories as needed.
func (ft *FileTools) Write(ctx context.Context, path, content string) error {
	abs, err := ft.resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Edit performs a single surgical text replacement. The old text must
// occur exactly once.
func (ft *FileTools) Edit(ctx context.Context, path, oldText, newText string) error {
	abs, err := ft.resolvePath(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("read file: %w", err)
	}

	content := string(data)
	switch count := strings.Count(content, oldText); {
	case count == 0:
		return fmt.Errorf("old text not found in file")
	case count > 1:
		return fmt.Errorf("old text appears %d times; must be unique for safe editing", count)
	}

	newContent := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(abs, []byte(newContent), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// List lists directory entries, directories suffixed with a slash.
func (ft *FileTools) List(ctx context.Context, path string) ([]string, error) {
	abs, err := ft.resolvePath(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", path)
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		result = append(result, name)
	}
	return result, nil
}

// RegisterAll adds the file tools to the registry.
func (ft *FileTools) RegisterAll(r *Registry) {
	r.Register(&Tool{
		Name:        "read_file",
		Description: "Read the contents of a file within the allowed directories",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path, absolute or relative to the primary allowed directory",
				},
			},
			"required": []string{"path"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return ft.Read(ctx, StringArg(args, "path"))
		},
	})

	r.Register(&Tool{
		Name:        "write_file",
		Description: "Write content to a file within the allowed directories, creating it if needed",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path to write",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Full file content",
				},
			},
			"required": []string{"path", "content"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			path := StringArg(args, "path")
			if err := ft.Write(ctx, path, StringArg(args, "content")); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %s", path), nil
		},
	})

	r.Register(&Tool{
		Name:        "edit_file",
		Description: "Replace one unique occurrence of text in a file",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path to edit",
				},
				"old_text": map[string]any{
					"type":        "string",
					"description": "Exact text to replace; must appear exactly once",
				},
				"new_text": map[string]any{
					"type":        "string",
					"description": "Replacement text",
				},
			},
			"required": []string{"path", "old_text", "new_text"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			path := StringArg(args, "path")
			err := ft.Edit(ctx, path, StringArg(args, "old_text"), StringArg(args, "new_text"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Edited %s", path), nil
		},
	})

	r.Register(&Tool{
		Name:        "list_directory",
		Description: "List the entries of a directory within the allowed directories",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory path to list",
				},
			},
			"required": []string{"path"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			entries, err := ft.List(ctx, StringArg(args, "path"))
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return "(empty directory)", nil
			}
			return strings.Join(entries, "\n"), nil
		},
	})
}
