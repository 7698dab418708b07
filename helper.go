package versioning

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// AppVersion returns the version of the repository in the working directory,
// without caching, keeping any "v" prefix, and "dev" when git cannot answer.
// It logs nothing.
func AppVersion(ctx context.Context, format Format) string {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc, err := New(WithCacheDisabled(), WithLogger(logger))
	if err != nil {
		return DefaultFallback
	}
	return svc.Version(ctx, svc.Query(format))
}
