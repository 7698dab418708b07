package versioning

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long output pipes are drained after git exits or is
// killed, in case a child process still holds them open.
const waitDelay = 500 * time.Millisecond

// ResolvedVersion is the normalized output of one resolver call.
type ResolvedVersion struct {
	Raw        string
	Format     Format
	ResolvedAt time.Time
}

// Resolver produces a version string for a repository path and format.
type Resolver interface {
	Resolve(ctx context.Context, repositoryPath string, format Format) (ResolvedVersion, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, repositoryPath string, format Format) (ResolvedVersion, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, repositoryPath string, format Format) (ResolvedVersion, error) {
	return f(ctx, repositoryPath, format)
}

// GitResolver runs the git binary to answer version queries.
// It never goes through a shell: the repository path is a single argv entry.
type GitResolver struct {
	binary  string
	timeout time.Duration
	fs      afero.Fs
	nowFunc NowFunc
}

// GitOption configures a GitResolver.
type GitOption func(*GitResolver)

// WithGitBinary overrides the git executable (default "git" looked up in PATH).
func WithGitBinary(path string) GitOption {
	return func(r *GitResolver) {
		r.binary = path
	}
}

// WithGitTimeout bounds each git invocation. Non-positive values restore DefaultTimeout.
func WithGitTimeout(d time.Duration) GitOption {
	return func(r *GitResolver) {
		if d <= 0 {
			d = DefaultTimeout
		}
		r.timeout = d
	}
}

// WithGitFs sets the filesystem used to check for repository metadata.
// git itself always runs against the OS filesystem.
func WithGitFs(fs afero.Fs) GitOption {
	return func(r *GitResolver) {
		r.fs = fs
	}
}

// WithGitNowFunc sets the clock used to stamp ResolvedVersion.ResolvedAt.
func WithGitNowFunc(nowFunc NowFunc) GitOption {
	return func(r *GitResolver) {
		r.nowFunc = nowFunc
	}
}

// NewGitResolver creates a resolver that shells out to git.
func NewGitResolver(options ...GitOption) *GitResolver {
	r := &GitResolver{
		binary:  "git",
		timeout: DefaultTimeout,
		fs:      afero.NewOsFs(),
		nowFunc: time.Now,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Resolve runs the git command mapped to format inside repositoryPath and
// returns the trimmed first line of its standard output.
func (r *GitResolver) Resolve(ctx context.Context, repositoryPath string, format Format) (ResolvedVersion, error) {
	if !format.Valid() {
		format = Tag
	}

	if err := r.checkRepository(repositoryPath); err != nil {
		return ResolvedVersion{}, &ResolveError{Kind: NoRepository, Path: repositoryPath, Format: format, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append([]string{"-C", repositoryPath}, format.gitArgs()...)
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		// git itself exited cleanly; only a leftover child kept the pipes open.
		err = nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			err = ctxErr
		}
		return ResolvedVersion{}, &ResolveError{
			Kind:   CommandFailed,
			Path:   repositoryPath,
			Format: format,
			Stderr: firstLine(stderr.Bytes()),
			Err:    err,
		}
	}

	raw := firstLine(stdout.Bytes())
	if raw == "" {
		return ResolvedVersion{}, &ResolveError{
			Kind:   CommandFailed,
			Path:   repositoryPath,
			Format: format,
			Err:    errors.New("empty output"),
		}
	}

	return ResolvedVersion{Raw: raw, Format: format, ResolvedAt: r.nowFunc()}, nil
}

// checkRepository verifies path is a directory holding a .git entry.
// .git may be a directory or, for worktrees and submodules, a gitfile.
func (r *GitResolver) checkRepository(path string) error {
	if path == "" {
		return errors.New("empty repository path")
	}

	isDir, err := afero.IsDir(r.fs, path)
	if err != nil {
		return err
	}
	if !isDir {
		return errors.New("not a directory")
	}

	exists, err := afero.Exists(r.fs, filepath.Join(path, ".git"))
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("missing .git")
	}
	return nil
}

// firstLine returns the first line of out with surrounding whitespace removed.
func firstLine(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
