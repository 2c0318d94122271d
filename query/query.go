// Package query implements the Query Formulator (C5): given a user query,
// a target backend, and a desired count, it asks a StructuredLLM for that
// many backend-syntax-correct search query strings. Grounded on
// original_source/academic_claim_analyzer/query_formulator.py, whose five
// SEARCH_GUIDE constants and GENERATE_QUERIES prompt template are carried
// over verbatim in substance (not copied comment-for-comment).
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/llm"
)

// guides holds the syntax cheat-sheet embedded in the prompt for each
// backend, one entry per backend.Name.
var guides = map[string]string{
	backend.Scopus: `Syntax and Operators

Valid syntax for advanced search queries includes:
- Field codes (TITLE, ABS, KEY, AUTH, AFFIL) to restrict searches to specific parts of documents
- Boolean operators (AND, OR, AND NOT) to combine search terms
- Proximity operators (W/n, PRE/n): W/n finds terms within n words of each other in any order;
  PRE/n finds terms in the given order within n words
- Quotation marks for loose phrase searches, braces {} for exact phrase searches
- Wildcards (*) to capture variations of a term

Invalid syntax includes mixing W/n and PRE/n in the same expression, using wildcards or
proximity operators with exact phrases, and placing AND NOT before other boolean operators.

Build queries with field codes focused on the most relevant document sections, combine
related concepts with AND/OR, and exclude irrelevant terms with AND NOT at the end.`,

	backend.OpenAlex: `Syntax and Operators

Valid syntax for OpenAlex search queries includes quotation marks for exact phrase matches,
a leading minus sign to exclude terms, the OR operator (all caps) to match either term, and
the * wildcard as a placeholder for unknown words. OpenAlex's default behavior already
combines terms with AND, so an explicit AND operator is redundant and should not be used.

Start with the most important search terms, use exact phrases in quotes for specific word
combinations, exclude irrelevant terms with a minus sign, and connect synonyms with OR.`,

	backend.ArXiv: `ArXiv accepts natural language queries as plain strings. It has no advanced boolean
syntax like Scopus. Produce multiple variations or angles on the user's query, in plain
language, to capture different aspects of the topic.`,

	backend.Core: `CORE accepts a query expression like 'title:(...) AND abstract:(...)', similar to
advanced boolean search. Use synonyms, phrases, parentheses, and boolean operators to
generate diverse queries covering different angles of the topic.`,

	backend.SemanticScholar: `Semantic Scholar accepts rich natural language queries; its ranking uses semantic
understanding rather than strict keyword matching, so comprehensive, information-dense
queries work better than many narrow ones. Each query should include the core concepts,
relevant synonyms or related terms, and any important contextual detail, while staying
focused on the original research question.`,
}

const promptTemplate = `You are an expert in academic literature search query formulation. Your task is to generate optimized search queries for academic databases to find research articles relevant to a user's research query.

User Research Query:
%s

Search Platform Guidance:
%s

Number of Queries to Generate: %d

Instructions:
1. Identify the core concepts, keywords, and nuances of the research topic.
2. Apply the search platform guidance above: its syntax, operators, and best practices.
3. Generate %d distinct search queries, each a different approach: synonyms, broader or
   narrower concepts, phrase variations, boolean combinations, and field codes where
   applicable.
4. Ensure every query is syntactically correct for the platform described above.
5. Return the queries as a JSON object: {"queries": ["query 1", "query 2", ...]}.`

// Formulate asks model for num backend-specific query strings. On any
// LLM failure it returns an empty slice, never an error, per spec §4.4's
// "empty list on failure" contract — query formulation is a best-effort
// enrichment step, not a precondition for the pipeline to proceed.
func Formulate(ctx context.Context, model llm.StructuredLLM, userQuery string, backendName string, num int) []string {
	guide, ok := guides[backendName]
	if !ok || num <= 0 {
		return nil
	}

	prompt := fmt.Sprintf(promptTemplate, userQuery, guide, num, num)
	resp, err := model.Generate(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return nil
	}

	raw, ok := resp["queries"].([]any)
	if !ok {
		return nil
	}
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		s, ok := q.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s != "" {
			queries = append(queries, s)
		}
	}
	return queries
}
