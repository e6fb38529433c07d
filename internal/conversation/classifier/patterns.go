// internal/conversation/classifier/patterns.go
package classifier

import (
	"regexp"

	"support-chatbot/internal/models"
)

type pattern struct {
	regex *regexp.Regexp
	// unless suppresses this pattern when it also matches.
	unless *regexp.Regexp
}

func (p pattern) match(text string) bool {
	if !p.regex.MatchString(text) {
		return false
	}
	return p.unless == nil || !p.unless.MatchString(text)
}

type intentGroup struct {
	intent   models.Intent
	patterns []pattern
}

// matches reports whether any pattern of the group hits; only the first hit counts.
func (g intentGroup) matches(text string) bool {
	for _, p := range g.patterns {
		if p.match(text) {
			return true
		}
	}
	return false
}

func p(expr string) pattern {
	return pattern{regex: regexp.MustCompile(expr)}
}

// intentGroups is evaluated in order; the order is the order intents are reported in.
var intentGroups = []intentGroup{
	{
		intent: models.IntentOrderTracking,
		patterns: []pattern{
			p(`\bwhere('s| is) my (order|package|parcel|stuff|delivery)\b`),
			p(`\b(track|tracking|order status|shipment|shipped|delivery|delivered|in transit|out for delivery)\b`),
			p(`\b(has|did) my (order|package|parcel) (ship|arrive)`),
			p(`\bwhen (will|does) (it|my order|my package) (arrive|ship|come)\b`),
		},
	},
	{
		intent: models.IntentProductSearch,
		patterns: []pattern{
			p(`\b(looking for|search(ing)? for|find me|show me|shop(ping)? for|do you (have|sell|carry)|browse)\b`),
			p(`\b(recommend\w*|suggest\w*|products?|catalog(ue)?)\b`),
			{
				regex:  regexp.MustCompile(`\b(need|buy)\b`),
				unless: regexp.MustCompile(`\b(need|buy) (to|help|assistance|support|an? (agent|human|person|refund))\b`),
			},
		},
	},
	{
		intent: models.IntentCartInquiry,
		patterns: []pattern{
			p(`\b(my cart|shopping cart|cart|basket|checkout|saved items)\b`),
		},
	},
	{
		intent: models.IntentProductQuestion,
		patterns: []pattern{
			p(`\b(in stock|out of stock|availability|available in)\b`),
			p(`\b(what|which) (sizes?|colou?rs?)\b`),
			p(`\b(size chart|sizing|made of|materials?|specs|specifications|dimensions|warranty)\b`),
			p(`\b(how much (is|does|are)|price of|compatible with|does (it|this) come)\b`),
		},
	},
	{
		intent: models.IntentSupportEscalation,
		patterns: []pattern{
			p(`\b(human|agent|representative|real person|supervisor|manager)\b`),
			p(`\b(speak|talk|chat) (to|with) (someone|somebody|a person|support)\b`),
			p(`\b(escalate|complaint|file a complaint)\b`),
		},
	},
	{
		intent: models.IntentBillingInquiry,
		patterns: []pattern{
			p(`\b(refund\w*|billing|bill|invoice|receipt|money back)\b`),
			p(`\b(charged?|charges|double charged|charged twice|payment|paid)\b`),
		},
	},
}

// orderKeyword drives the order-tracking override.
var orderKeyword = regexp.MustCompile(`\b(track\w*|orders?)\b`)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Either "#1234" or a bare run of 4 to 10 digits.
	orderNumberPattern = regexp.MustCompile(`#(\d{4,10})\b|\b(\d{4,10})\b`)
	yearPattern        = regexp.MustCompile(`^(19|20)\d{2}$`)
	quotedPattern      = regexp.MustCompile(`["“]([^"”]{2,80})["”]`)
)

// Sentiment keyword sets. Each entry counts once however often it appears.
var (
	negativeKeywords = compileAll(
		`\bangry\b`, `\bfrustrat\w*`, `\bridiculous\b`, `\bterrible\b`, `\bhorrible\b`,
		`\bawful\b`, `\bworst\b`, `\bunacceptable\b`, `\bdisappoint\w*`, `\bannoy\w*`,
		`\buseless\b`, `\bscam\b`, `\brefund\w*`, `\bhate\b`, `\bbroken\b`, `\bdamaged\b`,
		`\bnever (arrived|came|received)\b`, `\bstill waiting\b`, `\bwrong (item|order|size)\b`,
	)
	urgentKeywords = compileAll(
		`\burgent\w*`, `\basap\b`, `\bimmediately\b`, `\bemergency\b`, `\bright now\b`,
		`\bas soon as possible\b`, `\blawyer\b`, `\blegal action\b`, `\bchargeback\b`, `\bfraud\w*`,
	)
	positiveKeywords = compileAll(
		`\bthanks?\b`, `\bthank you\b`, `\bgreat\b`, `\blove\b`, `\bawesome\b`, `\bperfect\b`,
		`\bexcellent\b`, `\bhappy\b`, `\bappreciate\w*`,
	)
)

// Coarse buckets used only when nothing else classified the message.
var fallbackBuckets = []struct {
	intent models.Intent
	regex  *regexp.Regexp
}{
	{models.IntentOrderTracking, regexp.MustCompile(`\b(ship\w*|package|parcel|deliver\w*|arriv\w*|courier|carrier|late|lost)\b`)},
	{models.IntentProductSearch, regexp.MustCompile(`\b(shop\w*|sell\w*|price\w*|deal|deals|sale|item|items|want|get)\b`)},
	{models.IntentCartInquiry, regexp.MustCompile(`\b(bag|basket|checkout|added|saved)\b`)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
