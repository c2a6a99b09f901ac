package clip

import (
	"context"
	"image"
)

// StaticScorer gives the first prompt a fixed probability and splits the
// rest evenly. Used for local runs without an inference sidecar.
type StaticScorer struct {
	Probability float64
}

func (s StaticScorer) Compare(_ context.Context, _ image.Image, prompts []string) (map[string]float64, error) {
	out := make(map[string]float64, len(prompts))
	if len(prompts) == 0 {
		return out, nil
	}
	out[prompts[0]] = s.Probability
	if rest := len(prompts) - 1; rest > 0 {
		for _, p := range prompts[1:] {
			out[p] = (1 - s.Probability) / float64(rest)
		}
	}
	return out, nil
}
