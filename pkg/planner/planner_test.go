package planner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAliasService struct {
	targets map[string]string
	failing map[string]bool
}

func (f *fakeAliasService) IsAlias(_ context.Context, path string) bool {
	if f.failing[path] {
		return true
	}
	_, ok := f.targets[path]
	return ok
}

func (f *fakeAliasService) Resolve(_ context.Context, path string) (string, bool) {
	if f.failing[path] {
		return "", false
	}
	target, ok := f.targets[path]
	return target, ok
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func collectPairs(t *testing.T, p *Planner) []Pair {
	t.Helper()

	pairs := make(chan Pair, 1024)
	done := make(chan error, 1)
	go func() {
		defer close(pairs)
		done <- p.Start(context.Background(), pairs)
	}()

	var collected []Pair
	for pair := range pairs {
		collected = append(collected, pair)
	}
	require.NoError(t, <-done)

	return collected
}

func TestPlanner_MirrorsCopyDecisions(t *testing.T) {
	src := t.TempDir()
	targets := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dest")

	writeFile(t, filepath.Join(src, "plain.txt"), "plain")
	writeFile(t, filepath.Join(src, "sub", "nested.txt"), "nested")

	linkTarget := filepath.Join(src, "plain.txt")
	require.NoError(t, os.Symlink(linkTarget, filepath.Join(src, "plain.link")))

	targetFile := filepath.Join(targets, "report.pdf")
	writeFile(t, targetFile, "pdf")
	aliasFile := filepath.Join(src, "Doc.alias")
	writeFile(t, aliasFile, "blob")

	deadAlias := filepath.Join(src, "Dead.alias")
	writeFile(t, deadAlias, "dead blob")

	svc := &fakeAliasService{
		targets: map[string]string{aliasFile: targetFile},
		failing: map[string]bool{deadAlias: true},
	}

	p := New(Config{Source: src, Destination: dst}, svc, zerolog.New(io.Discard))
	pairs := collectPairs(t, p)

	byDest := map[string]Pair{}
	for _, pair := range pairs {
		byDest[pair.DestinationPath] = pair
	}

	// Plain file.
	pair, ok := byDest[filepath.Join(dst, "plain.txt")]
	require.True(t, ok)
	assert.Equal(t, PairFile, pair.Kind)
	assert.Equal(t, filepath.Join(src, "plain.txt"), pair.SourcePath)

	// Nested file implies its directory pair.
	_, ok = byDest[filepath.Join(dst, "sub")]
	require.True(t, ok)
	assert.Equal(t, PairDirectory, byDest[filepath.Join(dst, "sub")].Kind)
	assert.Equal(t, PairFile, byDest[filepath.Join(dst, "sub", "nested.txt")].Kind)

	// Symlink compared as a link.
	assert.Equal(t, PairSymlink, byDest[filepath.Join(dst, "plain.link")].Kind)

	// Alias renamed with the target's extension, compared against the
	// resolved target.
	pair, ok = byDest[filepath.Join(dst, "Doc.alias.pdf")]
	require.True(t, ok)
	assert.Equal(t, PairFile, pair.Kind)
	assert.Equal(t, targetFile, pair.SourcePath)

	// Unresolvable alias compared literally under its own name.
	pair, ok = byDest[filepath.Join(dst, "Dead.alias")]
	require.True(t, ok)
	assert.Equal(t, PairFile, pair.Kind)
	assert.Equal(t, deadAlias, pair.SourcePath)
}

func TestPlanner_AliasToDirectoryRecurses(t *testing.T) {
	src := t.TempDir()
	targets := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dest")

	targetDir := filepath.Join(targets, "Project")
	writeFile(t, filepath.Join(targetDir, "main.go"), "package main")
	aliasFile := filepath.Join(src, "Project Alias")
	writeFile(t, aliasFile, "blob")

	svc := &fakeAliasService{targets: map[string]string{aliasFile: targetDir}}

	p := New(Config{Source: src, Destination: dst}, svc, zerolog.New(io.Discard))
	pairs := collectPairs(t, p)

	byDest := map[string]Pair{}
	for _, pair := range pairs {
		byDest[pair.DestinationPath] = pair
	}

	assert.Equal(t, PairDirectory, byDest[filepath.Join(dst, "Project Alias")].Kind)

	pair := byDest[filepath.Join(dst, "Project Alias", "main.go")]
	assert.Equal(t, PairFile, pair.Kind)
	assert.Equal(t, filepath.Join(targetDir, "main.go"), pair.SourcePath)
}
