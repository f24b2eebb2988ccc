package project

import (
	"os"
	"path/filepath"
)

// ConfigFiles are the config file names recognised in a site root, in lookup order.
var ConfigFiles = []string{".postindexrc.yaml", ".postindexrc.yml", ".postindexrc.json"}

// Info describes a detected site root.
type Info struct {
	Root       string
	ConfigFile string
	VitePress  bool
	HasGit     bool
}

// FindSiteRoot searches for a site root starting from startPath and climbing up the
// directory tree. It falls back to startPath when no marker is found.
func FindSiteRoot(startPath string) (string, error) {
	if startPath == "" {
		startPath = "."
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	currentDir := absPath
	for {
		if root, ok := siteRootAt(currentDir); ok {
			return root, nil
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	return absPath, nil
}

// siteRootAt reports whether dir marks a site root, and which directory holds the content.
// A docs/.vitepress layout puts the content in docs.
func siteRootAt(dir string) (string, bool) {
	for _, name := range ConfigFiles {
		if exists(filepath.Join(dir, name)) {
			return dir, true
		}
	}
	if exists(filepath.Join(dir, ".vitepress")) {
		return dir, true
	}
	if exists(filepath.Join(dir, "docs", ".vitepress")) {
		return filepath.Join(dir, "docs"), true
	}
	if exists(filepath.Join(dir, ".git")) {
		return dir, true
	}
	return "", false
}

// Detect reports what markers are present in rootPath.
func Detect(rootPath string) *Info {
	info := &Info{Root: rootPath}
	info.ConfigFile = FindConfigFile(rootPath)
	info.VitePress = exists(filepath.Join(rootPath, ".vitepress"))
	info.HasGit = exists(filepath.Join(rootPath, ".git"))
	return info
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	for _, name := range ConfigFiles {
		path := filepath.Join(dir, name)
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
