package image

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-cost-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Service probes image references before analysis. The probe is best-effort:
// a HEAD failure may just be CORS or a picky CDN, and the vision model may
// still be able to fetch the image, so callers log and continue.
type Service struct {
	httpClient *http.Client
}

// NewService creates an image probe service
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CheckReachable issues a HEAD request against the image URL and reports
// whether it answered with a success status
func (s *Service) CheckReachable(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image URL probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image URL not accessible: status %d", resp.StatusCode)
	}

	common.LogDebug("image URL reachable",
		zap.String("image_url", imageURL),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
