package copier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureTargetExtension_AppendsExtension(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(target, []byte("pdf"), 0644))

	got := EnsureTargetExtension(filepath.Join(dir, "Doc.alias"), target)

	assert.Equal(t, filepath.Join(dir, "Doc.alias.pdf"), got)
}

func TestEnsureTargetExtension_AlreadyPresent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "photo.JPG")
	require.NoError(t, os.WriteFile(target, []byte("jpg"), 0644))

	// Case-insensitive suffix match: .jpg already covers .JPG.
	got := EnsureTargetExtension(filepath.Join(dir, "vacation.jpg"), target)

	assert.Equal(t, filepath.Join(dir, "vacation.jpg"), got)
}

func TestEnsureTargetExtension_NoDoubleAppend(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Foo.app")
	require.NoError(t, os.WriteFile(target, []byte("app"), 0644))

	got := EnsureTargetExtension(filepath.Join(dir, "Foo.app"), target)

	assert.Equal(t, filepath.Join(dir, "Foo.app"), got)
}

func TestEnsureTargetExtension_TargetWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(target, []byte("text"), 0644))

	got := EnsureTargetExtension(filepath.Join(dir, "Readme Alias"), target)

	assert.Equal(t, filepath.Join(dir, "Readme Alias"), got)
}

func TestEnsureTargetExtension_DirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Projects.d")
	require.NoError(t, os.Mkdir(target, 0755))

	// Directories carry no extension even when their name contains a dot.
	got := EnsureTargetExtension(filepath.Join(dir, "Projects Alias"), target)

	assert.Equal(t, filepath.Join(dir, "Projects Alias"), got)
}

func TestEnsureTargetExtension_MissingTargetTreatedAsFile(t *testing.T) {
	dir := t.TempDir()

	got := EnsureTargetExtension(filepath.Join(dir, "Doc.alias"), filepath.Join(dir, "gone.txt"))

	assert.Equal(t, filepath.Join(dir, "Doc.alias.txt"), got)
}
