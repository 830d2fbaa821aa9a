package alias

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeService resolves aliases from an in-memory map.
type fakeService struct {
	// targets maps an alias path to its immediate target. Paths absent
	// from the map are not aliases.
	targets map[string]string
	// failing paths are aliases whose resolution fails.
	failing map[string]bool

	probes   int
	resolves int
}

func (f *fakeService) IsAlias(_ context.Context, path string) bool {
	f.probes++
	if f.failing[path] {
		return true
	}
	_, ok := f.targets[path]
	return ok
}

func (f *fakeService) Resolve(_ context.Context, path string) (string, bool) {
	f.resolves++
	if f.failing[path] {
		return "", false
	}
	target, ok := f.targets[path]
	return target, ok
}

func TestResolveChain_NonAlias(t *testing.T) {
	svc := &fakeService{targets: map[string]string{}}

	res := ResolveChain(context.Background(), svc, "/a/plain.txt", 10)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "/a/plain.txt", res.Path)
	assert.Equal(t, 0, res.Hops)
}

func TestResolveChain_SingleHop(t *testing.T) {
	svc := &fakeService{targets: map[string]string{
		"/a/doc.alias": "/targets/report.pdf",
	}}

	res := ResolveChain(context.Background(), svc, "/a/doc.alias", 10)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "/targets/report.pdf", res.Path)
	assert.Equal(t, 1, res.Hops)
}

func TestResolveChain_MultiHop(t *testing.T) {
	svc := &fakeService{targets: map[string]string{
		"/a": "/b",
		"/b": "/c",
		"/c": "/d",
	}}

	res := ResolveChain(context.Background(), svc, "/a", 10)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "/d", res.Path)
	assert.Equal(t, 3, res.Hops)
}

func TestResolveChain_ResolutionFailure(t *testing.T) {
	svc := &fakeService{
		targets: map[string]string{"/a": "/broken"},
		failing: map[string]bool{"/broken": true},
	}

	res := ResolveChain(context.Background(), svc, "/a", 10)

	assert.Equal(t, OutcomeUnresolved, res.Outcome)
	assert.Empty(t, res.Path)
}

func TestResolveChain_SelfReferential(t *testing.T) {
	svc := &fakeService{targets: map[string]string{
		"/loop": "/loop",
	}}

	res := ResolveChain(context.Background(), svc, "/loop", 10)

	assert.Equal(t, OutcomeTruncated, res.Outcome)
	assert.Equal(t, "/loop", res.Path)
	// Terminates after a single resolution, not at the hop bound.
	assert.Equal(t, 1, svc.resolves)
}

func TestResolveChain_OscillatingChainTruncatesAtBound(t *testing.T) {
	svc := &fakeService{targets: map[string]string{
		"/ping": "/pong",
		"/pong": "/ping",
	}}

	res := ResolveChain(context.Background(), svc, "/ping", 10)

	assert.Equal(t, OutcomeTruncated, res.Outcome)
	assert.Equal(t, 10, res.Hops)
	assert.Contains(t, []string{"/ping", "/pong"}, res.Path)
}

func TestResolveChain_DefaultBound(t *testing.T) {
	// A 15-deep chain exceeds the default bound of 10.
	targets := map[string]string{}
	for i := 0; i < 15; i++ {
		targets[chainPath(i)] = chainPath(i + 1)
	}
	svc := &fakeService{targets: targets}

	res := ResolveChain(context.Background(), svc, chainPath(0), 0)

	assert.Equal(t, OutcomeTruncated, res.Outcome)
	assert.Equal(t, chainPath(DefaultMaxHops), res.Path)
	assert.Equal(t, DefaultMaxHops, res.Hops)
}

func TestResolveChain_ExactlyAtBound(t *testing.T) {
	// 9 aliases ending in a plain file resolve within 10 hops.
	targets := map[string]string{}
	for i := 0; i < 9; i++ {
		targets[chainPath(i)] = chainPath(i + 1)
	}
	svc := &fakeService{targets: targets}

	res := ResolveChain(context.Background(), svc, chainPath(0), 10)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, chainPath(9), res.Path)
}

func chainPath(i int) string {
	return "/chain/" + string(rune('a'+i))
}
