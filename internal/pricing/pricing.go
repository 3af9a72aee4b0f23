// Package pricing holds the console's price suggestion helpers.
package pricing

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// gradeFactor discounts the reference price by cosmetic grade.
var gradeFactor = map[string]float64{
	"A": 1.00,
	"B": 0.85,
	"C": 0.70,
	"D": 0.50,
}

// ErrUnknownGrade indicates a grade outside A-D.
var ErrUnknownGrade = errors.New("pricing: unknown grade")

// Service computes suggested sale prices and formats them for display.
type Service struct {
	printer *message.Printer
}

// NewService builds Service for the given BCP 47 locale tag. An
// unparseable tag falls back to en-US.
func NewService(locale string) *Service {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Service{printer: message.NewPrinter(tag)}
}

// Suggest returns the grade-discounted price, rounded to whole cents.
func (s *Service) Suggest(referencePrice float64, grade string) (float64, error) {
	if referencePrice < 0 {
		return 0, errors.New("pricing: reference price must be >= 0")
	}
	factor, ok := gradeFactor[grade]
	if !ok {
		return 0, ErrUnknownGrade
	}
	cents := int64(referencePrice*factor*100 + 0.5)
	return float64(cents) / 100, nil
}

// Format renders a price with locale-aware digit grouping.
func (s *Service) Format(price float64) string {
	return s.printer.Sprintf("$%.2f", price)
}
