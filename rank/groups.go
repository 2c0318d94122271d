package rank

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antflydb/scholarsearch/citation"
	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/paper"
)

const rankingPromptTemplate = `Analyze the relevance of the following papers to the query: "%s"

Ranking guidance: %s

Papers:
%s

Rank these papers from most to least relevant. Provide a brief explanation for each ranking.

Respond with a JSON object: {"rankings": [{"paper_id": "string", "rank": integer, "explanation": "string"}, ...]}.
Every paper must receive a unique rank from 1 to %d, where 1 is the most relevant.`

const analysisPromptTemplate = `For the following paper, provide a detailed analysis of its relevance to the query: "%s"

Ranking guidance: %s

Paper Title: %s

Full Text:
%s

Respond with a JSON object: {"analysis": "string", "relevant_quotes": ["string", ...]}.
Discuss methodology, evidence, and limitations, and extract 3 to 5 direct quotes supporting
the paper's relevance.`

// rankGroups submits one batched LLM call, one prompt per group, and
// returns each surviving paper's score for this round: (group_size -
// rank + 1) / group_size. A group whose response fails to parse into a
// valid permutation of 1..|group| is skipped entirely, per spec §4.7
// step 5 ("violating responses are discarded").
func rankGroups(ctx context.Context, model llm.StructuredLLM, query, guidance string, groups [][]*paper.Paper, log *zap.Logger) map[string]float64 {
	requests := make([]llm.Request, len(groups))
	for i, group := range groups {
		requests[i] = llm.Request{Prompt: buildRankingPrompt(query, guidance, group)}
	}

	results := model.GenerateBatch(ctx, requests)

	scores := make(map[string]float64)
	for i, group := range groups {
		result := results[i]
		if result.Err != nil {
			if log != nil {
				log.Warn("rank: group ranking call failed, skipping group", zap.Error(result.Err))
			}
			continue
		}
		ranking, ok := parseRankings(result.Data, len(group))
		if !ok {
			if log != nil {
				log.Warn("rank: group ranking response failed validation, skipping group")
			}
			continue
		}
		groupSize := float64(len(group))
		for id, rank := range ranking {
			scores[id] = (groupSize - float64(rank) + 1) / groupSize
		}
	}
	return scores
}

func buildRankingPrompt(query, guidance string, group []*paper.Paper) string {
	var b strings.Builder
	for _, p := range group {
		fmt.Fprintf(&b, "Paper ID: %s\nTitle: %s\nFull Text:\n%s\n\n", p.ID, p.Title, p.FullText)
	}
	return fmt.Sprintf(rankingPromptTemplate, query, guidance, b.String(), len(group))
}

// parseRankings validates that data's "rankings" array names exactly
// groupSize distinct paper ids with a rank permutation of 1..groupSize.
func parseRankings(data map[string]any, groupSize int) (map[string]int, bool) {
	raw, ok := data["rankings"].([]any)
	if !ok || len(raw) != groupSize {
		return nil, false
	}

	ranking := make(map[string]int, groupSize)
	seenRanks := make(map[int]struct{}, groupSize)
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, false
		}
		id, ok := obj["paper_id"].(string)
		if !ok || id == "" {
			return nil, false
		}
		rank, ok := asInt(obj["rank"])
		if !ok || rank < 1 || rank > groupSize {
			return nil, false
		}
		if _, dup := ranking[id]; dup {
			return nil, false
		}
		if _, dup := seenRanks[rank]; dup {
			return nil, false
		}
		ranking[id] = rank
		seenRanks[rank] = struct{}{}
	}
	if len(ranking) != groupSize {
		return nil, false
	}
	return ranking, true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// deepAnalyze runs the top-N analysis pass concurrently (one batched
// call, one prompt per paper) and attaches analysis/quotes. A paper whose
// call fails is dropped from the output entirely, per spec §4.7's "not
// retried" rule — unlike C7's keep-on-error policy, a missing deep
// analysis makes the final RankedPaper incomplete rather than merely
// unfiltered.
func deepAnalyze(ctx context.Context, model llm.StructuredLLM, query, guidance string, top []*paper.Paper, avg map[string]float64, log *zap.Logger) []*paper.RankedPaper {
	requests := make([]llm.Request, len(top))
	for i, p := range top {
		requests[i] = llm.Request{Prompt: fmt.Sprintf(analysisPromptTemplate, query, guidance, p.Title, p.FullText)}
	}
	results := model.GenerateBatch(ctx, requests)

	out := make([]*paper.RankedPaper, 0, len(top))
	for i, p := range top {
		result := results[i]
		if result.Err != nil {
			if log != nil {
				log.Warn("rank: deep analysis call failed, dropping paper",
					zap.String("title", p.Title), zap.Error(result.Err))
			}
			continue
		}
		analysis, _ := result.Data["analysis"].(string)
		quotes := asStringSlice(result.Data["relevant_quotes"])

		rp := &paper.RankedPaper{
			Paper:          *p,
			RelevanceScore: paper.ClampRelevanceScore(avg[p.ID]),
			Analysis:       analysis,
			RelevantQuotes: quotes,
		}
		out = append(out, rp)
	}
	return out
}

func asStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// enrichCitations fills each ranked paper's Bibtex, preferring ByDOI then
// ByTitle, and leaving any pre-existing Bibtex untouched when both
// resolver calls come back empty, per spec §4.7's citation-enrichment
// fallback chain. Runs one resolver lookup per top paper concurrently;
// each task returns nil regardless of its own resolver error so a single
// paper's lookup failure never cancels the others still in flight.
func enrichCitations(ctx context.Context, resolver citation.Resolver, papers []*paper.RankedPaper) {
	if resolver == nil {
		return
	}
	g, groupCtx := errgroup.WithContext(ctx)
	for _, p := range papers {
		p := p
		g.Go(func() error {
			if p.DOI != "" {
				if bibtex, err := resolver.ByDOI(groupCtx, p.DOI); err == nil && bibtex != "" {
					p.Bibtex = bibtex
					return nil
				}
			}
			if bibtex, err := resolver.ByTitle(groupCtx, p.Title, p.Authors, p.Year); err == nil && bibtex != "" {
				p.Bibtex = bibtex
			}
			return nil
		})
	}
	g.Wait()
}
