package search

import (
	"sort"

	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// rrfConstant is the standard Reciprocal Rank Fusion smoothing parameter;
// k=60 is the widely used default.
const rrfConstant = 60

// fused pairs a chunk with its combined rank-fusion score.
type fused struct {
	id      string
	text    string
	payload vectordb.Payload
	score   float64
	vecRank int
	litRank int
}

// fuseResults merges vector-similarity results with literal-match results
// using Reciprocal Rank Fusion: score(d) = sum over lists of 1/(k+rank).
// Scores are normalized to [0,1] so callers see the same score range
// whether or not a literal index is wired.
func fuseResults(vec []vectordb.Result, lit []LiteralResult, limit int) []Result {
	if len(vec) == 0 && len(lit) == 0 {
		return nil
	}

	scores := make(map[string]*fused, len(vec)+len(lit))

	for rank, r := range vec {
		scores[r.ID] = &fused{
			id:      r.ID,
			text:    r.Text,
			payload: r.Payload,
			score:   1.0 / float64(rrfConstant+rank+1),
			vecRank: rank + 1,
		}
	}

	for rank, r := range lit {
		f, ok := scores[r.ID]
		if !ok {
			f = &fused{
				id:      r.ID,
				text:    r.Text,
				payload: r.Payload,
			}
			scores[r.ID] = f
		}
		f.score += 1.0 / float64(rrfConstant+rank+1)
		f.litRank = rank + 1
	}

	all := make([]*fused, 0, len(scores))
	for _, f := range scores {
		all = append(all, f)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		// Chunks found by both retrievers outrank single-source ties.
		bothI := all[i].vecRank > 0 && all[i].litRank > 0
		bothJ := all[j].vecRank > 0 && all[j].litRank > 0
		if bothI != bothJ {
			return bothI
		}
		return all[i].id < all[j].id
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	maxScore := all[0].score
	out := make([]Result, len(all))
	for i, f := range all {
		score := float32(1.0)
		if maxScore > 0 {
			score = float32(f.score / maxScore)
		}
		out[i] = Result{
			FilePath:   f.payload.FilePath,
			ChunkText:  f.text,
			ChunkIndex: f.payload.ChunkIndex,
			Score:      score,
			Folder:     f.payload.Folder,
			FileType:   f.payload.FileType,
			WordCount:  f.payload.WordCount,
			CharCount:  f.payload.CharCount,
		}
	}
	return out
}
