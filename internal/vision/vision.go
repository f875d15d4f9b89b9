// Package vision reads class lists from photos with Google Cloud Vision text
// detection.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"

	"classroom/internal/core"
	"classroom/internal/log"
)

// MaxImageBytes bounds uploads; Vision rejects inline images above 20MB.
const MaxImageBytes = 10 << 20

var ErrEmptyImage = errors.New("empty image")

type Client struct {
	svc    *gvision.Service
	logger *log.Logger
}

func New(ctx context.Context, credentialsJSON []byte, logger *log.Logger) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	svc, err := gvision.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gvision.CloudVisionScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return NewWithService(svc, logger), nil
}

func NewWithService(svc *gvision.Service, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{svc: svc, logger: logger.WithComponent(log.ComponentVision)}
}

// ReadRoster runs text detection on image and parses the result as roster
// text, one student per line.
func (c *Client) ReadRoster(ctx context.Context, image []byte) ([]core.StudentGuess, error) {
	text, err := c.DetectText(ctx, image)
	if err != nil {
		return nil, err
	}
	guesses := core.ParseRosterText(text)
	c.logger.InfoContext(ctx, "Roster image read", log.FieldOperation, log.OpImport, log.FieldCount, len(guesses))
	return guesses, nil
}

// DetectText returns the full text Vision found in image.
func (c *Client) DetectText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if len(image) > MaxImageBytes {
		return "", fmt.Errorf("image too large: %d bytes", len(image))
	}

	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:    &gvision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*gvision.Feature{{Type: "TEXT_DETECTION"}},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("annotate image: %s", r.Error.Message)
	}
	if r.FullTextAnnotation != nil {
		return r.FullTextAnnotation.Text, nil
	}
	// Older responses carry the full text in the first annotation only.
	if len(r.TextAnnotations) > 0 {
		return r.TextAnnotations[0].Description, nil
	}
	return "", nil
}
