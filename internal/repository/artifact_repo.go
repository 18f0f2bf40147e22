package repository

// ArtifactRepository stores run artifacts under a root directory. Paths are
// slash-separated and relative to that root.
type ArtifactRepository interface {
	Write(rel string, data []byte) error
	Read(rel string) ([]byte, error)
	Exists(rel string) bool
	// Path returns the OS path of rel, for collaborators that write files themselves.
	Path(rel string) string
}
