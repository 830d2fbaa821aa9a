package copier

import (
	"os"
	"path/filepath"
	"strings"
)

// EnsureTargetExtension decides the final destination name for a copied
// alias: the alias's own base name, with the resolved target's extension
// appended if not already present (case-insensitive). Directory targets
// and extension-less targets leave the name unchanged.
//
// This is what turns "Doc.alias" pointing at report.pdf into
// "Doc.alias.pdf" while never producing "Foo.app.app".
func EnsureTargetExtension(destPath, targetPath string) string {
	if info, err := os.Stat(targetPath); err == nil && info.IsDir() {
		return destPath
	}

	targetExt := filepath.Ext(targetPath)
	if targetExt == "" {
		return destPath
	}

	if strings.HasSuffix(strings.ToLower(destPath), strings.ToLower(targetExt)) {
		return destPath
	}

	return destPath + targetExt
}
