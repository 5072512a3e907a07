package services

import (
	"strings"

	"github.com/mindspend/mindspend-api/models"
)

// Categories that count as needs. Anything else is a want.
var needCategories = map[string]struct{}{
	"groceries":      {},
	"rent":           {},
	"utilities":      {},
	"healthcare":     {},
	"insurance":      {},
	"transportation": {},
	"education":      {},
	"debt":           {},
}

// NormalizeCategory trims and lower-cases a category name.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Classify maps a category to "need" or "want", case-insensitively.
func Classify(category string) string {
	if _, ok := needCategories[NormalizeCategory(category)]; ok {
		return models.TypeNeed
	}
	return models.TypeWant
}
