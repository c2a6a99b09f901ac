package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/webp" // register decoder

	"photo-quest-service/internal/domain"
)

// DecoyPrompt is compared against the quest prompt so the scorer has a
// two-way choice to normalise over.
const DecoyPrompt = "a photo of something else"

// Scorer compares an image against a set of prompts and returns a probability
// per prompt. Probabilities over the given prompts sum to 1.
type Scorer interface {
	Compare(ctx context.Context, img image.Image, prompts []string) (map[string]float64, error)
}

// ScoringCoordinator turns raw submission bytes into a 0-100 score.
// It never touches storage.
type ScoringCoordinator struct {
	scorer  Scorer
	timeout time.Duration
	maxEdge int
}

// NewScoringCoordinator wires a scorer. A zero timeout leaves the caller's
// deadline alone; a zero maxEdge disables downscaling.
func NewScoringCoordinator(scorer Scorer, timeout time.Duration, maxEdge int) *ScoringCoordinator {
	return &ScoringCoordinator{scorer: scorer, timeout: timeout, maxEdge: maxEdge}
}

// Score decodes the image and returns the percentage of probability mass the
// scorer assigns to prompt over DecoyPrompt.
func (c *ScoringCoordinator) Score(ctx context.Context, data []byte, prompt string) (int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	img = normalizeImage(img, c.maxEdge)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	probs, err := c.scorer.Compare(ctx, img, []string{prompt, DecoyPrompt})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrScoringUnavailable, err)
	}
	p, ok := probs[prompt]
	if !ok || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: no probability for prompt", domain.ErrScoringUnavailable)
	}
	return toPercent(p), nil
}

// toPercent rounds half to even, matching how the scores were historically computed.
func toPercent(p float64) int {
	pct := int(math.RoundToEven(p * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// normalizeImage converts any pixel format to RGBA and caps the longest edge.
func normalizeImage(img image.Image, maxEdge int) image.Image {
	rgba := clone.AsRGBA(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return rgba
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	return transform.Resize(rgba, w, h, transform.Linear)
}
