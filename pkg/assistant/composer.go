package assistant

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/enrichment"
	"ai-shopping-assistant-be/pkg/intent"
	"ai-shopping-assistant-be/pkg/utils"
)

const (
	PriceUnavailable = "I couldn’t fetch a live price for this item right now. " +
		"Prices vary by seller and options, but reviews suggest it’s reasonably priced."
	BrandUnreadable    = "I can’t read a visible brand from this image."
	ColorUncertain     = "I can’t confidently determine a single dominant color."
	GenericImage       = "Looks like a product image."
	SalesVolumePreface = "Exact sales numbers aren’t public. " +
		"Based on reviews and public signals, here’s the popularity snapshot:"
	SalesVolumeDefault = "Reviews suggest it’s widely purchased and well-reviewed."
	OpinionPreface     = "Here’s what customer reviews say (individual experiences vary):"
	RephraseFallback   = "I couldn’t find a clear answer. Try rephrasing."

	addendumMinLen    = 20
	addendumDedupLen  = 60
	defaultPriceTitle = "this item"
)

var brandLikePattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\-]{2,}`)

// Composer turns a SignalBundle into the final answer. The first matching
// rule wins, in this order: price, identity, color, what-is-this, sales
// volume, opinion, general.
type Composer struct {
	resolver MetaResolver
	logger   logger.ILogger
}

func NewComposer(resolver MetaResolver, logger logger.ILogger) *Composer {
	return &Composer{resolver: resolver, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, b *SignalBundle, flags intent.Flags) string {
	text := strings.TrimSpace(b.TextAnswer)
	agentText := strings.TrimSpace(b.AgentAnswer)
	v := b.Visual

	switch {
	case flags.Price:
		return c.composePrice(ctx, b, text, agentText)

	case flags.Identity:
		if v.Brand != "" {
			return fmt.Sprintf("The visible brand appears to be %s.", v.Brand)
		}
		guess := ExtractBrandLike(agentText)
		if guess == "" {
			guess = ExtractBrandLike(text)
		}
		if guess != "" {
			return fmt.Sprintf("It looks like the brand might be %s.", guess)
		}
		return BrandUnreadable

	case flags.Color:
		if v.Color != "" {
			return v.Color
		}
		return ColorUncertain

	case flags.WhatIsThis && b.HasImage:
		if v.Brand != "" && v.Caption != "" {
			return v.Brand + " — " + v.Caption
		}
		if v.Caption != "" {
			return v.Caption
		}
		return GenericImage

	case flags.SalesVolume:
		snippet := utils.Tidy(text)
		if snippet == "" {
			snippet = SalesVolumeDefault
		}
		return SalesVolumePreface + "\n\n" + snippet

	case flags.Opinion && text != "":
		return OpinionPreface + "\n\n" + utils.Tidy(text)
	}

	return composeGeneral(b.Enrichment.Meta, text, agentText)
}

// composePrice tries the bundle's meta, then two fresh resolutions from
// different source texts, so at most three resolutions are consulted.
func (c *Composer) composePrice(ctx context.Context, b *SignalBundle, text, agentText string) string {
	if line := PriceLine(b.Enrichment.Meta); line != "" {
		return line
	}

	retries := [][]string{
		{agentText, b.Visual.SeedText, text},
		{b.Visual.SeedText, b.Question},
	}
	for i, texts := range retries {
		meta := c.resolver.Resolve(ctx, texts...)
		if line := PriceLine(meta); line != "" {
			c.logger.Info("assistant", "Price found on retry", map[string]interface{}{
				"attempt": i + 2,
				"asin":    meta.ASIN,
			})
			return line
		}
	}
	return PriceUnavailable
}

// PriceLine renders a price sentence, or "" when meta has no price.
func PriceLine(m enrichment.Meta) string {
	if m.Price == "" {
		return ""
	}
	title := m.Title
	if title == "" {
		title = defaultPriceTitle
	}
	suffix := ""
	if m.ASIN != "" {
		suffix = fmt.Sprintf(" (ASIN %s)", m.ASIN)
	}
	return fmt.Sprintf("The current listed price on Amazon is %s for %s%s. Prices change frequently.", m.Price, title, suffix)
}

func composeGeneral(meta enrichment.Meta, text, agentText string) string {
	var lines []string
	if meta.Title != "" {
		lines = append(lines, "**Product**: "+meta.Title)
	}
	if meta.Price != "" {
		lines = append(lines, "**Price (Amazon)**: "+meta.Price)
	}
	if text != "" {
		lines = append(lines, utils.Tidy(text))
	}
	if note := shortAddendum(text, agentText); note != "" {
		lines = append(lines, note)
	}
	if len(lines) == 0 {
		return RephraseFallback
	}
	return strings.Join(lines, "\n\n")
}

// shortAddendum returns the agent's text as a note unless it is short or
// its opening is already part of the primary answer.
func shortAddendum(primary, extra string) string {
	if extra == "" {
		return ""
	}
	if len([]rune(extra)) > addendumMinLen && !strings.Contains(primary, utils.Truncate(extra, addendumDedupLen)) {
		return "_Note_: " + extra
	}
	return ""
}

// ExtractBrandLike returns the longest all-caps or title-case word of at
// least three characters, title-cased. The first one wins on ties.
func ExtractBrandLike(text string) string {
	if text == "" {
		return ""
	}
	var candidates []string
	for _, tok := range brandLikePattern.FindAllString(text, -1) {
		if utils.IsUpper(tok) || utils.IsTitle(tok) {
			candidates = append(candidates, tok)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })
	return utils.TitleCase(candidates[0])
}
