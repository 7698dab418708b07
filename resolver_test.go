package versioning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitResolver_NoRepository(t *testing.T) {
	ctx := context.Background()

	memFs := afero.NewMemMapFs()
	require.NoError(t, memFs.MkdirAll("/plain/dir", 0o755))
	createTestFile(t, memFs, "/a/file", []byte("x"))
	require.NoError(t, memFs.MkdirAll("/repo/.git", 0o755))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing path", path: "/nonexistent/path"},
		{name: "empty path", path: ""},
		{name: "directory without .git", path: "/plain/dir"},
		{name: "file instead of directory", path: "/a/file"},
	}

	r := NewGitResolver(WithGitFs(memFs))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, format := range Formats() {
				_, err := r.Resolve(ctx, tt.path, format)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoRepository)
				assert.Equal(t, NoRepository, KindOf(err))

				var re *ResolveError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, tt.path, re.Path)
				assert.Equal(t, format, re.Format)
			}
		})
	}
}

func TestGitResolver_Formats(t *testing.T) {
	ctx := context.Background()
	dir := initGitRepo(t, "app")
	r := NewGitResolver(WithGitNowFunc(fixedNowFunc))

	t.Run("commit is the 7 character short hash of HEAD", func(t *testing.T) {
		full := runGit(t, dir, "rev-parse", "HEAD")

		rv, err := r.Resolve(ctx, dir, Commit)
		require.NoError(t, err)
		assert.Len(t, rv.Raw, 7)
		assert.Equal(t, full[:7], rv.Raw)
		assert.Equal(t, Commit, rv.Format)
		assert.Equal(t, fixedNowFunc(), rv.ResolvedAt)
	})

	t.Run("tag without tags fails", func(t *testing.T) {
		_, err := r.Resolve(ctx, dir, Tag)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCommandFailed)

		var re *ResolveError
		require.ErrorAs(t, err, &re)
		assert.NotEmpty(t, re.Stderr)
	})

	t.Run("tag-commit without tags is the short hash", func(t *testing.T) {
		rv, err := r.Resolve(ctx, dir, TagWithCommit)
		require.NoError(t, err)
		assert.Equal(t, runGit(t, dir, "rev-parse", "--short", "HEAD"), rv.Raw)
	})

	runGit(t, dir, "tag", "v1.2.3")

	t.Run("on a tag", func(t *testing.T) {
		for _, format := range []Format{Tag, Full, TagWithCommit} {
			rv, err := r.Resolve(ctx, dir, format)
			require.NoError(t, err, format.String())
			assert.Equal(t, "v1.2.3", rv.Raw, format.String())
		}
	})

	commitFile(t, dir, "CHANGELOG.md", "next\n")

	t.Run("past a tag", func(t *testing.T) {
		short := runGit(t, dir, "rev-parse", "--short", "HEAD")

		rv, err := r.Resolve(ctx, dir, Tag)
		require.NoError(t, err)
		assert.Equal(t, "v1.2.3", rv.Raw)

		rv, err = r.Resolve(ctx, dir, Full)
		require.NoError(t, err)
		assert.Equal(t, "v1.2.3-1-g"+short, rv.Raw)

		rv, err = r.Resolve(ctx, dir, TagWithCommit)
		require.NoError(t, err)
		assert.Equal(t, "v1.2.3-1-g"+short, rv.Raw)
	})
}

func TestGitResolver_PathIsOneArgument(t *testing.T) {
	ctx := context.Background()
	dir := initGitRepo(t, "repo; touch pwned $(id) `id`")
	runGit(t, dir, "tag", "v0.1.0")

	rv, err := NewGitResolver().Resolve(ctx, dir, Tag)
	require.NoError(t, err)
	assert.Equal(t, "v0.1.0", rv.Raw)

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "pwned"))
	assert.True(t, os.IsNotExist(err), "path must not be interpreted by a shell")
}

func TestGitResolver_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as fake git")
	}
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	fakeGit := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(fakeGit, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	r := NewGitResolver(WithGitBinary(fakeGit), WithGitTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := r.Resolve(ctx, dir, Tag)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestGitResolver_ChildHoldingOutputOpen(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as fake git")
	}
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	// The background sleep inherits stdout and keeps the pipe open after git exits.
	fakeGit := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(fakeGit, []byte("#!/bin/sh\nprintf 'v9.9.9\\n'\nsleep 5 &\nexit 0\n"), 0o755))

	start := time.Now()
	rv, err := NewGitResolver(WithGitBinary(fakeGit), WithGitTimeout(10*time.Second)).Resolve(ctx, dir, Tag)
	require.NoError(t, err)
	assert.Equal(t, "v9.9.9", rv.Raw)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestGitResolver_EmptyOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as fake git")
	}
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	fakeGit := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(fakeGit, []byte("#!/bin/sh\nprintf '\\n  v9.9.9\\n'\n"), 0o755))

	_, err := NewGitResolver(WithGitBinary(fakeGit)).Resolve(ctx, dir, Tag)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestGitResolver_TrimsFirstLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as fake git")
	}
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	fakeGit := filepath.Join(t.TempDir(), "git")
	require.NoError(t, os.WriteFile(fakeGit, []byte("#!/bin/sh\nprintf '  v2.0.0  \\nsecond line\\n'\n"), 0o755))

	rv, err := NewGitResolver(WithGitBinary(fakeGit)).Resolve(ctx, dir, Full)
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", rv.Raw)
}

func TestGitResolver_MissingBinary(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	_, err := NewGitResolver(WithGitBinary(filepath.Join(dir, "no-such-git"))).Resolve(ctx, dir, Tag)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.False(t, errors.Is(err, ErrNoRepository))
}

func TestResolverFunc(t *testing.T) {
	var got Format
	r := ResolverFunc(func(_ context.Context, _ string, format Format) (ResolvedVersion, error) {
		got = format
		return ResolvedVersion{Raw: "v1"}, nil
	})

	rv, err := r.Resolve(context.Background(), "/x", Full)
	require.NoError(t, err)
	assert.Equal(t, "v1", rv.Raw)
	assert.Equal(t, Full, got)
}
