package ingest

import (
	"bytes"
	"context"
	"strings"

	"code.sajari.com/docconv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Abdelbosspie/smartifyai-server/internal/core"
)

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
	log            *logrus.Logger
}

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func NewDocconvExtractor(useReadability bool, log *logrus.Logger) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability, log: log}
}

// ExtractText converts the document and emits its non-empty lines as
// fragments. Extraction failures close the channel without fragments;
// the caller decides how to degrade.
func (e *DocconvExtractor) ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error) {
	out := make(chan string, 32)

	g.Go(func() error {
		defer close(out)

		res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
		if err != nil {
			e.log.WithFields(logrus.Fields{"content_type": contentType}).
				WithError(err).Warn("docconv extraction failed")
			return nil
		}
		if res.Body == "" {
			e.log.WithFields(logrus.Fields{"content_type": contentType}).
				Warn("docconv extracted empty text")
			return nil
		}

		for _, line := range strings.Split(res.Body, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return out, nil
}
