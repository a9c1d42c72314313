package opensubtitles

import (
	"context"
	"errors"

	"mediacorral/internal/apperr"
)

// ErrNoSubtitlesFound means Search returned no candidates in the configured
// language for the content ID.
var ErrNoSubtitlesFound = errors.New("opensubtitles: no subtitles found")

// ErrUnreliableSubtitles means the top candidates disagreed with each other
// too much (or, in the 3-candidate case, tied with no single agreeing
// pair) for FindBest to trust any of them.
var ErrUnreliableSubtitles = errors.New("opensubtitles: no reliable subtitles")

// Best is the winning candidate's name and raw (unnormalized) text.
type Best struct {
	Name string
	Text string
}

type downloaded struct {
	name string
	raw  string
	norm string
}

// FindBest fetches up to the top 3 ranked candidates for tmdbID and
// triangulates the most trustworthy one:
//
//   - 0 candidates: ErrNoSubtitlesFound.
//   - 1 candidate: returned as-is, trust unverifiable.
//   - 2 candidates: accepted if their normalized edit distance is at most
//     half the longer raw text's length, else ErrUnreliableSubtitles.
//   - 3 candidates: the three pairwise normalized distances are computed;
//     the two smallest distances' shared vertex (the file agreed on by both
//     closest pairs) wins, provided the smallest distance is within half
//     the longest raw text's length. A three-way tie has no well-defined
//     shared vertex and is treated as ErrUnreliableSubtitles.
func (c *Client) FindBest(ctx context.Context, tmdbID int) (Best, error) {
	candidates, err := c.Search(ctx, tmdbID)
	if err != nil {
		return Best{}, err
	}
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	files := make([]downloaded, 0, len(candidates))
	for _, cand := range candidates {
		text, err := c.Download(ctx, cand.FileID)
		if err != nil {
			return Best{}, err
		}
		files = append(files, downloaded{name: cand.Name, raw: text, norm: NormalizeForComparison(text)})
	}

	switch len(files) {
	case 0:
		return Best{}, apperr.Wrap(apperr.ErrNotFound, component, "FindBest", "no subtitles found", ErrNoSubtitlesFound)
	case 1:
		return Best{Name: files[0].name, Text: files[0].raw}, nil
	case 2:
		return findBestOfTwo(files[0], files[1])
	default:
		return findBestOfThree(files[0], files[1], files[2])
	}
}

func findBestOfTwo(a, b downloaded) (Best, error) {
	distance := Levenshtein(a.norm, b.norm)
	maxLen := maxInt(len(a.raw), len(b.raw))
	if distance > maxLen/2 {
		return Best{}, apperr.Wrap(apperr.ErrPrecondition, component, "FindBest", "top two candidates disagree", ErrUnreliableSubtitles)
	}
	return Best{Name: a.name, Text: a.raw}, nil
}

func findBestOfThree(a, b, c downloaded) (Best, error) {
	dAB := Levenshtein(a.norm, b.norm)
	dBC := Levenshtein(b.norm, c.norm)
	dCA := Levenshtein(c.norm, a.norm)
	maxLen := maxInt(len(a.raw), maxInt(len(b.raw), len(c.raw)))

	if dAB == dBC && dBC == dCA {
		return Best{}, apperr.Wrap(apperr.ErrPrecondition, component, "FindBest", "three candidates equidistant, no agreeing pair", ErrUnreliableSubtitles)
	}

	edges := []triEdge{
		{dAB, 0, 1},
		{dBC, 1, 2},
		{dCA, 2, 0},
	}
	// Stable insertion sort by length: only 3 elements, and ties must keep
	// a deterministic order for the shared-vertex lookup below.
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j].length < edges[j-1].length; j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}

	if edges[0].length > maxLen/2 {
		return Best{}, apperr.Wrap(apperr.ErrPrecondition, component, "FindBest", "minimum pairwise distance exceeds half the longest text", ErrUnreliableSubtitles)
	}

	shared := sharedVertex(edges[0], edges[1])
	files := [3]downloaded{a, b, c}
	return Best{Name: files[shared].name, Text: files[shared].raw}, nil
}

type triEdge = struct {
	length int
	u, v   int
}

func sharedVertex(e1, e2 triEdge) int {
	switch {
	case e1.u == e2.u || e1.u == e2.v:
		return e1.u
	default:
		return e1.v
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
