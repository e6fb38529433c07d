// internal/conversation/planner/query.go
package planner

import (
	"strings"
	"unicode"

	"support-chatbot/internal/models"
)

var stopWords = toSet(
	"i", "im", "i'm", "me", "my", "we", "our", "you", "your", "a", "an", "the", "is", "are", "am",
	"be", "do", "does", "have", "has", "any", "some", "looking", "look", "for", "need", "want",
	"to", "find", "search", "searching", "show", "buy", "get", "please", "can", "could", "would",
	"like", "with", "of", "in", "on", "and", "or", "what", "which", "this", "that", "it", "there",
	"product", "products", "recommend", "recommendation", "recommendations", "suggest",
	"something", "shop", "shopping", "sell", "carry", "browse", "help", "hi", "hello", "hey",
	"thanks", "thank", "catalog", "catalogue", "got", "new", "good", "best",
)

// Extra words that only frame a question about a product.
var questionWords = toSet(
	"stock", "available", "availability", "sizes", "size", "sizing", "chart", "colors", "colours",
	"color", "colour", "price", "much", "how", "cost", "costs", "warranty", "made", "material",
	"materials", "specs", "specifications", "dimensions", "compatible", "come", "out", "tell",
	"about", "know",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// searchQuery picks the product query: an explicit quoted product first, then
// the message minus stop words, then the browse placeholder.
func searchQuery(entities models.Entities, message string) string {
	return deriveQuery(entities, message, nil)
}

func detailsQuery(entities models.Entities, message string) string {
	return deriveQuery(entities, message, questionWords)
}

func deriveQuery(entities models.Entities, message string, extra map[string]bool) string {
	if len(entities.Products) > 0 {
		return entities.Products[0]
	}

	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})

	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'-")
		if w == "" || stopWords[w] || extra[w] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return models.BrowseQuery
	}
	return strings.Join(kept, " ")
}
