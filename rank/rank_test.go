package rank

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/antflydb/scholarsearch/llm"
	"github.com/antflydb/scholarsearch/paper"
)

func TestRoundCountSmallKIsAlwaysThree(t *testing.T) {
	for _, k := range []int{1, 2, 8} {
		if got := roundCount(k); got != 3 {
			t.Errorf("roundCount(%d) = %d, want 3", k, got)
		}
	}
}

func TestRoundCountLargeKIsClampedToEight(t *testing.T) {
	if got := roundCount(100000); got != 8 {
		t.Errorf("roundCount(100000) = %d, want 8", got)
	}
}

func TestRoundCountNineIsWithinClamp(t *testing.T) {
	got := roundCount(9)
	if got < 3 || got > 8 {
		t.Fatalf("roundCount(9) = %d, want in [3,8]", got)
	}
}

func makePapers(n int) []*paper.Paper {
	out := make([]*paper.Paper, n)
	for i := range out {
		out[i] = &paper.Paper{ID: paperID(i), Title: paperID(i)}
	}
	return out
}

func paperID(i int) string {
	return "paper_" + string(rune('A'+i))
}

func TestPartitionUnderFiveIsSingleGroup(t *testing.T) {
	entries := makePapers(4)
	groups := partition(entries, rand.New(rand.NewSource(1)))
	if len(groups) != 1 || len(groups[0]) != 4 {
		t.Fatalf("groups = %v, want one group of 4", groups)
	}
}

func TestPartitionGroupSizesWithinBounds(t *testing.T) {
	for _, k := range []int{5, 7, 12, 23, 40} {
		entries := makePapers(k)
		groups := partition(entries, rand.New(rand.NewSource(int64(k))))

		total := 0
		for _, g := range groups {
			if len(g) < 2 || len(g) > 5 {
				t.Errorf("k=%d: group size %d out of [2,5]", k, len(g))
			}
			total += len(g)
		}
		if total != k {
			t.Errorf("k=%d: groups cover %d papers, want %d", k, total, k)
		}
	}
}

func TestPartitionNoUndersizedFinalGroup(t *testing.T) {
	// k=11 with groupSize derived from clamp(11/2,2,5)=5 leaves a remainder
	// of 1, which must be redistributed rather than left as its own group.
	entries := makePapers(11)
	groups := partition(entries, rand.New(rand.NewSource(11)))
	for i, g := range groups {
		if len(g) < 2 {
			t.Fatalf("group %d has size %d, want >= 2", i, len(g))
		}
	}
}

func TestPreFilterDropsShortFullText(t *testing.T) {
	short := &paper.Paper{Title: "Short", FullText: strings.Repeat("word ", 10)}
	long := &paper.Paper{Title: "Long", FullText: strings.Repeat("word ", 250)}

	out := preFilter([]*paper.Paper{short, long})
	if len(out) != 1 || out[0].Title != "Long" {
		t.Fatalf("preFilter result = %v, want only the long paper", out)
	}
}

func TestPreFilterAssignsStableIDs(t *testing.T) {
	long := strings.Repeat("word ", 250)
	out := preFilter([]*paper.Paper{
		{Title: "A", FullText: long},
		{Title: "B", FullText: long},
	})
	if out[0].ID != "paper_1" || out[1].ID != "paper_2" {
		t.Fatalf("ids = %q, %q, want paper_1, paper_2", out[0].ID, out[1].ID)
	}
}

func TestAverageScoresMissingEntryIsZero(t *testing.T) {
	entries := []*paper.Paper{{ID: "p1"}, {ID: "p2"}}
	scores := map[string][]float64{"p1": {0.5, 0.75}}

	avg := averageScores(entries, scores)
	if avg["p1"] != 0.625 {
		t.Errorf("avg[p1] = %v, want 0.625", avg["p1"])
	}
	if avg["p2"] != 0.0 {
		t.Errorf("avg[p2] = %v, want 0.0 for a paper with no scores", avg["p2"])
	}
}

func TestDedupByTitleKeepsFirstOccurrence(t *testing.T) {
	papers := []*paper.RankedPaper{
		{Paper: paper.Paper{Title: "Same Title"}, RelevanceScore: 0.9},
		{Paper: paper.Paper{Title: "same title  "}, RelevanceScore: 0.1},
		{Paper: paper.Paper{Title: "Other"}, RelevanceScore: 0.5},
	}
	out := dedupByTitle(papers)
	if len(out) != 2 {
		t.Fatalf("dedupByTitle returned %d papers, want 2", len(out))
	}
	if out[0].RelevanceScore != 0.9 {
		t.Errorf("kept duplicate has score %v, want the first occurrence's 0.9", out[0].RelevanceScore)
	}
}

func TestParseRankingsRejectsWrongLength(t *testing.T) {
	data := map[string]any{"rankings": []any{
		map[string]any{"paper_id": "p1", "rank": float64(1)},
	}}
	if _, ok := parseRankings(data, 2); ok {
		t.Fatal("expected parseRankings to reject a short rankings array")
	}
}

func TestParseRankingsRejectsDuplicateRank(t *testing.T) {
	data := map[string]any{"rankings": []any{
		map[string]any{"paper_id": "p1", "rank": float64(1)},
		map[string]any{"paper_id": "p2", "rank": float64(1)},
	}}
	if _, ok := parseRankings(data, 2); ok {
		t.Fatal("expected parseRankings to reject a duplicate rank")
	}
}

func TestParseRankingsAcceptsValidPermutation(t *testing.T) {
	data := map[string]any{"rankings": []any{
		map[string]any{"paper_id": "p1", "rank": float64(2)},
		map[string]any{"paper_id": "p2", "rank": float64(1)},
	}}
	ranking, ok := parseRankings(data, 2)
	if !ok {
		t.Fatal("expected a valid permutation to be accepted")
	}
	if ranking["p2"] != 1 || ranking["p1"] != 2 {
		t.Errorf("ranking = %v, want p2:1 p1:2", ranking)
	}
}

func TestRankEndToEndProducesScoredSurvivors(t *testing.T) {
	long := strings.Repeat("word ", 250)
	candidates := []*paper.Paper{
		{Title: "Paper One", DOI: "10.1/one", FullText: long},
		{Title: "Paper Two", FullText: long},
		{Title: "Too Short", FullText: "short"},
	}

	rankingResponse := llm.Result{Data: map[string]any{"rankings": []any{
		map[string]any{"paper_id": "paper_1", "rank": float64(1)},
		map[string]any{"paper_id": "paper_2", "rank": float64(2)},
	}}}
	analysisResponse := llm.Result{Data: map[string]any{
		"analysis":        "relevant",
		"relevant_quotes": []any{"quote one"},
	}}

	fake := &llm.Fake{Responses: []llm.Result{rankingResponse, analysisResponse}}
	resolver := &fakeResolver{bibtexByDOI: map[string]string{"10.1/one": "@article{one}"}}

	opts := Options{Query: "test query", RankingGuidance: "prefer rigor", TopN: 2, Rand: rand.New(rand.NewSource(1))}
	result := Rank(context.Background(), fake, resolver, candidates, opts, nil)

	if len(result) != 2 {
		t.Fatalf("Rank returned %d papers, want 2 survivors (short paper pre-filtered)", len(result))
	}
	for _, rp := range result {
		if rp.RelevanceScore < 0 || rp.RelevanceScore > 1 {
			t.Errorf("paper %q has out-of-range relevance score %v", rp.Title, rp.RelevanceScore)
		}
	}
}

func TestRankDropsPaperOnDeepAnalysisFailure(t *testing.T) {
	long := strings.Repeat("word ", 250)
	candidates := []*paper.Paper{{Title: "Only Paper", FullText: long}}

	rankingResponse := llm.Result{Data: map[string]any{"rankings": []any{
		map[string]any{"paper_id": "paper_1", "rank": float64(1)},
	}}}
	failedAnalysis := llm.Result{Err: errAnalysisFailed}

	fake := &llm.Fake{Responses: []llm.Result{rankingResponse, failedAnalysis}}
	opts := Options{Query: "q", TopN: 1, Rand: rand.New(rand.NewSource(2))}

	result := Rank(context.Background(), fake, nil, candidates, opts, nil)
	if len(result) != 0 {
		t.Fatalf("expected the sole paper to be dropped on analysis failure, got %v", result)
	}
}

var errAnalysisFailed = fakeErr("analysis failed")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

type fakeResolver struct {
	bibtexByDOI map[string]string
}

func (f *fakeResolver) ByDOI(ctx context.Context, doi string) (string, error) {
	return f.bibtexByDOI[doi], nil
}

func (f *fakeResolver) ByTitle(ctx context.Context, title string, authors []string, year int) (string, error) {
	return "", nil
}
