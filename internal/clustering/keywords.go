package clustering

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

var keywordStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "was": true, "were": true,
	"are": true, "but": true, "not": true, "you": true, "this": true,
	"that": true, "with": true, "have": true, "had": true, "has": true,
	"very": true, "our": true, "they": true, "them": true, "there": true,
	"their": true, "its": true, "all": true, "out": true, "got": true,
	"get": true, "would": true, "could": true, "just": true, "from": true,
	"una": true, "che": true, "per": true, "con": true, "del": true,
	"della": true, "molto": true, "les": true, "des": true, "est": true,
	"yang": true, "dan": true, "untuk": true, "los": true, "las": true,
	"muy": true, "pero": true, "como": true, "más": true, "und": true,
	"der": true, "die": true, "das": true, "sehr": true,
}

// keywordTokens lowercases the text and returns content words of three or
// more characters, with stopwords removed.
func keywordTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 || keywordStopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// documentFrequencies counts, for each token, how many documents contain it.
func documentFrequencies(docs [][]string) map[string]int {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	return df
}

// topKeywords ranks the tokens of one cluster by TF-IDF against the whole
// corpus, so terms every cluster shares score low and cluster-specific
// terms rise to the top. Ties break alphabetically for stable output.
func topKeywords(memberDocs [][]string, corpusDF map[string]int, corpusSize, topN int) []string {
	tf := make(map[string]int)
	for _, tokens := range memberDocs {
		for _, t := range tokens {
			tf[t]++
		}
	}

	type scored struct {
		term  string
		score float64
	}
	ranked := make([]scored, 0, len(tf))
	for term, count := range tf {
		idf := math.Log(float64(corpusSize+1)/float64(corpusDF[term]+1)) + 1
		ranked = append(ranked, scored{term, float64(count) * idf})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].term < ranked[j].term
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	keywords := make([]string, len(ranked))
	for i, r := range ranked {
		keywords[i] = r.term
	}
	return keywords
}
