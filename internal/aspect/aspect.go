// Package aspect classifies image dimensions: orientation, the
// gcd-reduced ratio and the nearest match from a candidate list.
package aspect

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// DefaultCandidates is the preset list used when a caller supplies no
// candidates of its own.
var DefaultCandidates = []string{"9:16", "16:9", "1:1", "4:3", "3:4"}

// Orientation labels.
const (
	TypeLandscape = "landscape"
	TypePortrait  = "portrait"
	TypeSquare    = "square"
)

// Info is the full classification of one width/height pair.
type Info struct {
	Ratio       float64 `json:"ratio"`
	IsLandscape bool    `json:"is_landscape"`
	// Width and height divided by their greatest common divisor, "w:h".
	Reduced string `json:"reduced"`
	// One of landscape, portrait or square. Square only on exact
	// equality; there is no tolerance.
	Type string `json:"type"`
	// Closest entry of the candidate list.
	Nearest string `json:"nearest"`
}

// Classify derives the classification for a width/height pair. Width
// and height must be positive integers; callers holding float
// dimensions must truncate toward zero before this point. An empty
// candidate list falls back to DefaultCandidates.
//
// This is the one operation in the bridge that fails loudly: there is
// no sensible default for missing dimensions.
func Classify(width, height int, candidates []string) (Info, error) {
	if width <= 0 || height <= 0 {
		return Info{}, fmt.Errorf("aspect: width and height must be positive, got %dx%d", width, height)
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	ratio := float64(width) / float64(height)
	typ := TypeSquare
	switch {
	case ratio > 1:
		typ = TypeLandscape
	case ratio < 1:
		typ = TypePortrait
	}
	g := gcd(width, height)
	return Info{
		Ratio:       ratio,
		IsLandscape: typ == TypeLandscape,
		Reduced:     fmt.Sprintf("%d:%d", width/g, height/g),
		Type:        typ,
		Nearest:     nearest(ratio, candidates),
	}, nil
}

// ClassifyImage classifies using the pixel dimensions of img.
func ClassifyImage(img image.Image, candidates []string) (Info, error) {
	if img == nil {
		return Info{}, fmt.Errorf("aspect: nil image")
	}
	b := img.Bounds()
	return Classify(b.Dx(), b.Dy(), candidates)
}

// ParseList splits a comma-separated candidate string, trimming
// whitespace and dropping empty entries.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// nearest picks the candidate minimizing |ratio - value|. Malformed
// entries and zero-denominator ratios are skipped. The comparison is a
// strict less-than, so the first-seen candidate wins ties. When
// nothing parses, "1:1" is the answer.
func nearest(ratio float64, candidates []string) string {
	best := ""
	bestDiff := math.Inf(1)
	for _, cand := range candidates {
		v, ok := parseRatio(cand)
		if !ok {
			continue
		}
		if diff := math.Abs(ratio - v); diff < bestDiff {
			bestDiff = diff
			best = strings.TrimSpace(cand)
		}
	}
	if best == "" {
		return "1:1"
	}
	return best
}

// parseRatio parses "W:H" or a bare decimal.
func parseRatio(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if w, h, found := strings.Cut(s, ":"); found {
		wv, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		hv, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 != nil || err2 != nil || hv == 0 {
			return 0, false
		}
		return wv / hv, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
