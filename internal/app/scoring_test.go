package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"photo-quest-service/internal/domain"
)

type scorerFunc func(ctx context.Context, img image.Image, prompts []string) (map[string]float64, error)

func (f scorerFunc) Compare(ctx context.Context, img image.Image, prompts []string) (map[string]float64, error) {
	return f(ctx, img, prompts)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestScoreUsesPromptAndDecoy(t *testing.T) {
	var gotPrompts []string
	var gotBounds image.Rectangle
	scorer := scorerFunc(func(_ context.Context, img image.Image, prompts []string) (map[string]float64, error) {
		gotPrompts = prompts
		gotBounds = img.Bounds()
		return map[string]float64{prompts[0]: 0.734, prompts[1]: 0.266}, nil
	})
	coord := NewScoringCoordinator(scorer, time.Second, 32)

	score, err := coord.Score(context.Background(), encodePNG(t, 128, 64), "a green field")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 73 {
		t.Fatalf("expected 73, got %d", score)
	}
	if len(gotPrompts) != 2 || gotPrompts[0] != "a green field" || gotPrompts[1] != DecoyPrompt {
		t.Fatalf("unexpected prompts %v", gotPrompts)
	}
	if gotBounds.Dx() != 32 || gotBounds.Dy() != 16 {
		t.Fatalf("expected image downscaled to 32x16, got %v", gotBounds)
	}
}

func TestScoreRejectsUndecodableImage(t *testing.T) {
	called := false
	coord := NewScoringCoordinator(scorerFunc(func(context.Context, image.Image, []string) (map[string]float64, error) {
		called = true
		return nil, nil
	}), time.Second, 0)

	_, err := coord.Score(context.Background(), []byte("definitely not a picture"), "a cat")
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if called {
		t.Fatalf("scorer must not run for an invalid image")
	}
}

func TestScoreWrapsScorerFailures(t *testing.T) {
	failing := scorerFunc(func(context.Context, image.Image, []string) (map[string]float64, error) {
		return nil, errors.New("model offline")
	})
	if _, err := NewScoringCoordinator(failing, time.Second, 0).Score(context.Background(), encodePNG(t, 4, 4), "a cat"); !errors.Is(err, domain.ErrScoringUnavailable) {
		t.Fatalf("expected ErrScoringUnavailable, got %v", err)
	}

	missing := scorerFunc(func(context.Context, image.Image, []string) (map[string]float64, error) {
		return map[string]float64{"something": 1}, nil
	})
	if _, err := NewScoringCoordinator(missing, time.Second, 0).Score(context.Background(), encodePNG(t, 4, 4), "a cat"); !errors.Is(err, domain.ErrScoringUnavailable) {
		t.Fatalf("expected ErrScoringUnavailable for missing probability, got %v", err)
	}
}

func TestScoreTimesOut(t *testing.T) {
	slow := scorerFunc(func(ctx context.Context, _ image.Image, _ []string) (map[string]float64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	start := time.Now()
	_, err := NewScoringCoordinator(slow, 20*time.Millisecond, 0).Score(context.Background(), encodePNG(t, 4, 4), "a cat")
	if !errors.Is(err, domain.ErrScoringUnavailable) {
		t.Fatalf("expected ErrScoringUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestToPercent(t *testing.T) {
	cases := map[float64]int{
		0:     0,
		1:     100,
		0.125: 12,
		0.375: 38,
		0.5:   50,
		-0.2:  0,
		1.3:   100,
	}
	for p, want := range cases {
		if got := toPercent(p); got != want {
			t.Fatalf("toPercent(%v) = %d, want %d", p, got, want)
		}
	}
}
