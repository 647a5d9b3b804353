package services

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordLength is the shortest query word that counts as a keyword
// when scoring content pools.
const minKeywordLength = 4

// cosineSimilarity returns dot(a,b) / (|a| * |b|). Vectors of different
// length, and zero-magnitude vectors, score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// extractKeywords lowercases the query and returns its distinct words of at
// least minKeywordLength runes, in first-seen order.
func extractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minKeywordLength || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// keywordFraction is the share of keywords found in content, case-insensitively.
func keywordFraction(keywords []string, content string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	lower := strings.ToLower(content)
	matched := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// poolScore is importance plus the boosted keyword fraction, capped at 1.
func poolScore(importance, fraction, boost float64) float64 {
	return math.Min(1, importance+fraction*boost)
}

// clamp01 limits v to [0,1].
func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
