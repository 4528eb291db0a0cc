package domain

import "path/filepath"

const (
	TitleDumpFile = "anime-titles.xml.gz"
	TitleLockFile = "anime-titles.lock"
)

// Paths holds the on-disk locations of the title dump artifact
type Paths struct {
	CacheDir string
	Artifact string
	Partial  string
	Lock     string
}

// NewPaths creates a new Paths instance rooted at cacheDir
func NewPaths(cacheDir string) *Paths {
	artifact := filepath.Join(cacheDir, TitleDumpFile)
	return &Paths{
		CacheDir: cacheDir,
		Artifact: artifact,
		Partial:  artifact + ".part",
		Lock:     filepath.Join(cacheDir, TitleLockFile),
	}
}
