package parts

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Field weights.
const (
	weightID          = 5
	weightTag         = 5
	weightPart        = 3
	weightDescription = 2
	weightFilename    = 1
)

// Hit pairs a matched part with its relevance score.
type Hit struct {
	Part  Part `json:"part"`
	Score int  `json:"score"`
}

var folder = cases.Fold()

// Search ranks indexed parts against a query. The whole case-folded query
// is matched by substring containment against id, title, description, and
// filename, each contributing its weight at most once; tags are matched per
// whitespace-separated query term, contributing the tag weight at most
// once. A part must score to be returned. An empty query returns every
// part, unscored, in index order. A positive limit caps the result.
func (ix *Indexer) Search(query string, limit int) []Hit {
	folded := strings.TrimSpace(folder.String(query))
	terms := strings.Fields(folded)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []Hit
	for _, id := range ix.order {
		part := ix.parts[id]
		if folded == "" {
			hits = append(hits, Hit{Part: *part})
			continue
		}
		if score := scorePart(part, folded, terms); score > 0 {
			hits = append(hits, Hit{Part: *part, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func scorePart(part *Part, query string, terms []string) int {
	score := 0
	if strings.Contains(folder.String(part.ID), query) {
		score += weightID
	}
	if strings.Contains(folder.String(part.Metadata["part"]), query) {
		score += weightPart
	}
	if strings.Contains(folder.String(part.Metadata["description"]), query) {
		score += weightDescription
	}
tags:
	for _, term := range terms {
		for _, tag := range part.Tags {
			if strings.Contains(folder.String(tag), term) {
				score += weightTag
				break tags
			}
		}
	}
	if strings.Contains(folder.String(part.Filename), query) {
		score += weightFilename
	}
	return score
}
