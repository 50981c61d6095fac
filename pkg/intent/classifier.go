// Package intent routes product questions with explicit keyword tables.
//
// Every flag is computed independently so the answer composer can apply its
// own precedence order on top of them.
package intent

import (
	"regexp"
	"strings"
	"sync"
)

var (
	ImageQuestionKeywords = []string{
		"what is this", "what’s this", "what is it", "identify",
		"brand", "maker", "make", "manufacturer", "model", "name",
		"color", "colour",
	}

	RefersToImageTerms = []string{"this", "this product", "this item", "this one"}

	OpinionKeywords = []string{
		"what do people think", "people think", "reviews", "review",
		"rating", "ratings", "feedback", "worth it", "worth buying",
		"recommend", "pros and cons", "good or bad", "overall opinion",
	}

	SalesVolumeKeywords = []string{
		"how many people have bought", "how many bought", "units sold",
		"how many sold", "sold in the last year", "sales in the last year",
	}

	PriceKeywords = []string{
		"price", "cost", "how much", "current price", "what is the price",
		"how much is this", "how much is it",
	}

	IdentityKeywords = []string{"brand", "maker", "manufacturer", "make", "name", "model", "identify"}

	ColorKeywords = []string{"color", "colour"}

	WhatIsThisKeywords = []string{"what is this", "what’s this", "what is it", "identify"}
)

// Flags is the independently evaluated set of intents for one question.
type Flags struct {
	Price         bool `json:"price"`
	Identity      bool `json:"identity"`
	Color         bool `json:"color"`
	WhatIsThis    bool `json:"what_is_this"`
	SalesVolume   bool `json:"sales_volume"`
	Opinion       bool `json:"opinion"`
	ImageQuestion bool `json:"image_question"`
	RefersToImage bool `json:"refers_to_image"`
}

// Classify evaluates every keyword table against the question.
func Classify(question string) Flags {
	return Flags{
		Price:         Any(question, PriceKeywords),
		Identity:      Any(question, IdentityKeywords),
		Color:         Any(question, ColorKeywords),
		WhatIsThis:    Any(question, WhatIsThisKeywords),
		SalesVolume:   Any(question, SalesVolumeKeywords),
		Opinion:       Any(question, OpinionKeywords),
		ImageQuestion: Any(question, ImageQuestionKeywords),
		RefersToImage: Any(question, RefersToImageTerms),
	}
}

// Names lists the set flags, used for logs and persisted diagnostics.
func (f Flags) Names() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(f.Price, "price")
	add(f.Identity, "identity")
	add(f.Color, "color")
	add(f.WhatIsThis, "what_is_this")
	add(f.SalesVolume, "sales_volume")
	add(f.Opinion, "opinion")
	add(f.ImageQuestion, "image_question")
	add(f.RefersToImage, "refers_to_image")
	if len(names) == 0 {
		names = append(names, "general")
	}
	return names
}

// ContainsTerm matches multi-word terms as substrings and single words on
// word boundaries, both case-insensitively.
func ContainsTerm(text, term string) bool {
	text = strings.ToLower(text)
	term = strings.ToLower(term)
	if strings.Contains(term, " ") {
		return strings.Contains(text, term)
	}
	return wordPattern(term).MatchString(text)
}

// Any reports whether at least one term matches.
func Any(text string, terms []string) bool {
	for _, t := range terms {
		if ContainsTerm(text, t) {
			return true
		}
	}
	return false
}

var patternCache sync.Map // term -> *regexp.Regexp

func wordPattern(term string) *regexp.Regexp {
	if re, ok := patternCache.Load(term); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	patternCache.Store(term, re)
	return re
}
