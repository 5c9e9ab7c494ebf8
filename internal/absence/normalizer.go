// Package absence turns raw absence rows into classified records.
package absence

import (
	"strings"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"go.uber.org/zap"
)

// Normalizer classifies absence rows and cross-checks their tags against
// the known-category table
type Normalizer struct {
	categories *models.CategoryTable
	keywords   Keywords
	logger     *zap.Logger
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(categories *models.CategoryTable, keywords Keywords, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		categories: categories,
		keywords:   keywords,
		logger:     logger,
	}
}

// Result holds normalized records and the unknown-category advisories
type Result struct {
	Records  []models.AbsenceRecord          `json:"records"`
	Warnings []models.UnknownCategoryWarning `json:"warnings"`
}

// Normalize enriches every row. It never fails: malformed fields fall back
// to neutral values.
func (n *Normalizer) Normalize(rows []models.RawAbsence) Result {
	result := Result{
		Records: make([]models.AbsenceRecord, 0, len(rows)),
	}

	for _, raw := range rows {
		rec := n.NormalizeRow(raw)
		if len(rec.UnknownTags) > 0 {
			result.Warnings = append(result.Warnings, models.UnknownCategoryWarning{
				Row:        raw.Row,
				EmployeeID: raw.EmployeeID,
				Unknown:    rec.UnknownText(),
			})
		}
		result.Records = append(result.Records, rec)
	}

	n.logger.Debug("Absences normalized",
		zap.Int("rows", len(rows)),
		zap.Int("rows_with_unknown_categories", len(result.Warnings)),
		zap.Int("known_categories", n.categories.Len()))

	return result
}

// NormalizeRow classifies a single row
func (n *Normalizer) NormalizeRow(raw models.RawAbsence) models.AbsenceRecord {
	rec := models.AbsenceRecord{
		RawAbsence: raw,
		Kinds:      make(map[models.AbsenceKind]bool),
	}

	text := strings.Join([]string{raw.Category, raw.FullDayText, raw.PartialText}, " ")

	rec.MarkedAbsent = strings.EqualFold(strings.TrimSpace(raw.Marker), "X")

	for _, rule := range n.keywords.rules() {
		if containsAny(text, rule.keywords) {
			rec.Kinds[rule.kind] = true
		}
	}
	if rec.MarkedAbsent {
		rec.Kinds[models.AbsenceKindUnexcused] = true
	}
	rec.Unexcused = rec.Kinds[models.AbsenceKindUnexcused]
	rec.Late = rec.Kinds[models.AbsenceKindLate]

	rec.DurationHours = ParseDuration(raw.Duration)
	if rec.DurationHours == 0 && strings.TrimSpace(raw.Duration) == "" {
		rec.DurationHours = FindDuration(raw.PartialText)
	}

	rec.Tags = n.buildTags(raw, rec.Kinds)
	for _, tag := range rec.Tags {
		if !n.categories.Contains(tag) {
			rec.UnknownTags = append(rec.UnknownTags, tag)
		}
	}

	return rec
}

// buildTags collects the raw labels and appends a canonical tag the first
// time each detected condition is not already represented
func (n *Normalizer) buildTags(raw models.RawAbsence, kinds map[models.AbsenceKind]bool) []string {
	var tags []string
	seen := make(map[string]bool)

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		key := columns.Fold(tag)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, source := range []string{raw.Category, raw.FullDayText} {
		for _, label := range strings.Split(source, ";") {
			add(label)
		}
	}

	for _, rule := range n.keywords.rules() {
		if !kinds[rule.kind] {
			continue
		}
		represented := false
		for _, tag := range tags {
			if containsAny(tag, rule.keywords) {
				represented = true
				break
			}
		}
		if !represented {
			add(rule.tag)
		}
	}

	return tags
}
