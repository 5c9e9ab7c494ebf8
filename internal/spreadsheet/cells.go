package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/basket-allowance/internal/columns"
	"github.com/garyjia/basket-allowance/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-01-2006",
}

// cell returns the trimmed value at index i, or "" when the row is short
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeNumber turns "R$ 1.234,56", "1234,56" and "1234.56" into "1234.56"
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(normalizeNumber(s))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(normalizeNumber(s), 64)
}

// parseID accepts integer ids, including ones exported as "101.0"
func parseID(s string) (int64, error) {
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f <= 0 {
		return 0, fmt.Errorf("not a positive integer: %q", s)
	}
	return int64(f), nil
}

// parseDate reads day-first text dates and Excel serial numbers
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseDuration normalizes a duration cell to "HH:MM" (or "HH:MM:SS").
// Time-formatted cells arrive raw as a fraction of a day, so 0.0625 is 01:30.
func parseDuration(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if strings.Contains(s, ":") {
		if !isClock(s) {
			return "", fmt.Errorf("unrecognized duration %q", s)
		}
		return s, nil
	}

	days, err := strconv.ParseFloat(normalizeNumber(s), 64)
	if err != nil || days < 0 {
		return "", fmt.Errorf("unrecognized duration %q", s)
	}
	secs := int64(math.Round(days * 24 * 3600))
	h, m, sec := secs/3600, secs%3600/60, secs%60
	if sec != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func isClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n >= 60) {
			return false
		}
	}
	return true
}

// parseClass maps the "Direito Pagamento" column to an eligibility class
func parseClass(s string) (models.EligibilityClass, error) {
	if c := models.EligibilityClass(strings.ToLower(strings.TrimSpace(s))); c.IsValid() {
		return c, nil
	}
	folded := columns.Fold(s)
	switch {
	case folded == "":
		return "", fmt.Errorf("empty class")
	case strings.HasPrefix(folded, "nao") || strings.Contains(folded, "impede") || strings.Contains(folded, "bloque"):
		return models.ClassBlocksPayout, nil
	case strings.Contains(folded, "decis") || strings.Contains(folded, "avaliar") || strings.Contains(folded, "aguard"):
		return models.ClassRequiresDecision, nil
	case folded == "sim" || strings.Contains(folded, "tem direito") || strings.Contains(folded, "neutr"):
		return models.ClassNeutral, nil
	}
	return "", fmt.Errorf("unrecognized class %q", s)
}
