/*
	Package versioning resolves an application's version string from git, with caching and a fallback.

It asks git for the most recent tag (or describe output, or the short commit hash),
keeps the answer in a pluggable cache, and returns a configured default whenever
the repository or git itself is unavailable. Resolution never fails from the
caller's point of view.

# Overview

A Service combines three collaborators:
  - Resolver - runs git and normalizes its output (GitResolver by default)
  - Cache - get/set/delete by key with a TTL, supplied by the application
  - StaticSource - optional version files for deployments without .git

Lookups go cache, static file, git, fallback, in that order.

# Basic Usage

Creating a service:

	svc, err := versioning.New(
	    versioning.WithRepositoryPath("/srv/app"),
	    versioning.WithFallback("v0.0.0"),
	)
	if err != nil {
	    log.Fatalf("Invalid versioning config: %v", err)
	}

Reading versions:

	svc.Tag(ctx)           // "v1.4.2"
	svc.Full(ctx)          // "v1.4.2-3-gabc1234"
	svc.Commit(ctx)        // "abc1234"
	svc.TagWithCommit(ctx) // "v1.4.2", or "abc1234" when no tag exists

Custom queries:

	v := svc.Version(ctx, versioning.Query{
	    RepositoryPath: "/srv/other",
	    Format:         versioning.Full,
	    IncludePrefix:  false, // "1.4.2-3-gabc1234"
	})

# Formats

Each Format maps to one git command, run as "git -C <path> ...":

	Tag            describe --tags --abbrev=0
	Full           describe --tags
	Commit         rev-parse --short HEAD
	TagWithCommit  describe --tags --always

The repository path is passed as a single argument, never through a shell.

# Caching

Caching is on by default with an in-memory LRU (MemoryCache) and a one hour TTL.
Other backends:

	cache, err := versioning.OpenFileCache(".cache/version")  // JSON files via afero
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	cache := rediscache.New(client)                            // Redis

Any type with Get, Set and Delete satisfies Cache. Errors from a cache are
logged and treated as misses. Keys are "<prefix>_<format>" (prefix
"app_version" by default), so ClearCache can drop every format at once:

	_ = svc.ClearCache(ctx)

# Static version files

With WithStaticFiles, the service reads version.txt, composer.json,
package.json, Cargo.toml or pyproject.toml from the repository path before
running git. Static files are not consulted for the Commit format.

# Error Handling

Service methods return strings only. Resolvers and caches report typed errors
that can be inspected when used directly:

  - ErrNoRepository: the path is missing or has no .git
  - ErrCommandFailed: git exited non-zero, timed out or printed nothing
  - ErrCacheUnavailable: a cache operation failed

	_, err := versioning.NewGitResolver().Resolve(ctx, path, versioning.Tag)
	if errors.Is(err, versioning.ErrNoRepository) {
	    // not a checkout
	}
*/
package versioning
