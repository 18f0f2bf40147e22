package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for relative paths that escape the root directory.
var ErrOutsideRoot = errors.New("path escapes artifact root")

// ArtifactRepoImpl stores artifacts as plain files under a root directory.
type ArtifactRepoImpl struct {
	root string
}

// NewArtifactRepo creates a new instance of ArtifactRepoImpl rooted at dir.
func NewArtifactRepo(dir string) *ArtifactRepoImpl {
	return &ArtifactRepoImpl{root: dir}
}

// Root returns the workspace directory.
func (r *ArtifactRepoImpl) Root() string {
	return r.root
}

// Path returns the OS path of a slash-separated relative path. Dot segments
// are resolved as if rel were rooted, so the result always lies under root.
func (r *ArtifactRepoImpl) Path(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(path.Clean("/"+rel)))
}

// resolve is Path for callers that touch the file: a rel climbing out of the
// root is refused instead of clamped.
func (r *ArtifactRepoImpl) resolve(rel string) (string, error) {
	joined := filepath.Join(r.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(r.root, joined)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return joined, nil
}

// Write writes data to rel, creating parent directories as needed.
func (r *ArtifactRepoImpl) Write(rel string, data []byte) error {
	full, err := r.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Read returns the content of rel.
func (r *ArtifactRepoImpl) Read(rel string) ([]byte, error) {
	full, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Exists reports whether rel is an existing regular file.
func (r *ArtifactRepoImpl) Exists(rel string) bool {
	full, err := r.resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}
