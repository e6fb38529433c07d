// internal/conversation/classifier/entities.go
package classifier

import (
	"strings"

	"support-chatbot/internal/models"
)

// ExtractEntities pulls the first email address, every order-number-like
// token and any quoted product names out of raw text.
func ExtractEntities(message string) models.Entities {
	var entities models.Entities

	entities.Email = strings.TrimRight(emailPattern.FindString(message), ".")

	// Digits inside an address are not order numbers.
	withoutEmails := emailPattern.ReplaceAllString(message, " ")
	seen := make(map[string]bool)
	for _, loc := range orderNumberPattern.FindAllStringSubmatchIndex(withoutEmails, -1) {
		var number string
		switch {
		case loc[2] >= 0:
			number = withoutEmails[loc[2]:loc[3]]
		case loc[4] >= 0:
			if !plausibleBareNumber(withoutEmails, loc[4], loc[5]) {
				continue
			}
			number = withoutEmails[loc[4]:loc[5]]
		}
		if number == "" || seen[number] {
			continue
		}
		seen[number] = true
		entities.OrderNumbers = append(entities.OrderNumbers, number)
	}

	for _, m := range quotedPattern.FindAllStringSubmatch(message, -1) {
		if name := strings.TrimSpace(m[1]); name != "" {
			entities.Products = append(entities.Products, name)
		}
	}

	return entities
}

// plausibleBareNumber rejects digit runs without a "#" that read as a year
// or sit inside a phone number or date such as 555-1234 or 2023.05.01.
func plausibleBareNumber(text string, start, end int) bool {
	if yearPattern.MatchString(text[start:end]) {
		return false
	}
	if start > 0 && isNumberJoiner(text[start-1]) {
		return false
	}
	if end < len(text)-1 && isNumberJoiner(text[end]) && isDigit(text[end+1]) {
		return false
	}
	return true
}

func isNumberJoiner(c byte) bool {
	return c == '-' || c == '.' || c == '/' || c == '(' || c == ')' || c == '+'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// normalize lowercases text and removes email addresses so address parts
// never trigger keyword patterns.
func normalize(message string) string {
	return strings.ToLower(emailPattern.ReplaceAllString(message, " "))
}
