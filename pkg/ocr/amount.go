package ocr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAmount is returned when no plausible monetary amount can be extracted.
var ErrNoAmount = errors.New("no amount detected")

// Result is an amount suggestion read from a receipt.
type Result struct {
	Amount     int64   `json:"amount"`
	Raw        string  `json:"raw"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"-"`
}

var centsRE = regexp.MustCompile(`[.,]\d{2}$`)

var ribuRE = regexp.MustCompile(`(?i)\b([1-9][0-9]{0,3})\s*[,.:;-]?\s*ribu\b`)

// patterns are tried in priority order; the first captures keep their context words.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b((?:jumlah(?:\s+transfer)?|total(?:\s+bayar)?|total pembayaran|grand total)[:\s]*(?:Rp\.?|IDR)?\s*[0-9][0-9.,]*)`),
	regexp.MustCompile(`(?i)((?:Rp\.?|IDR)\s*[0-9][0-9.,]*)`),
	regexp.MustCompile(`([0-9]{1,3}(?:[.,][0-9]{3})+(?:[.,][0-9]{2})?)`),
	regexp.MustCompile(`\b([0-9]{5,7})\b`),
}

// ExtractAmount picks the most likely total from OCR text.
func ExtractAmount(text string) (Result, error) {
	text = normalizeText(text)
	cands := candidates(text)
	if amt, raw, ok := bestAmount(cands); ok {
		conf := float64(len(raw)) / float64(len(text)+1)
		low := strings.ToLower(raw)
		if hasCurrency(low) || centsRE.MatchString(raw) {
			conf = max(conf, 0.85)
		} else if strings.Contains(low, "total") || strings.Contains(low, "jumlah") {
			conf = max(conf, 0.7)
		}
		return Result{Amount: amt, Raw: raw, Confidence: min(conf, 1), Text: text}, nil
	}
	if m := ribuRE.FindStringSubmatch(text); len(m) >= 2 {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil && n > 0 {
			return Result{Amount: n * 1000, Raw: m[0], Confidence: 0.5, Text: text}, nil
		}
	}
	return Result{Text: text}, ErrNoAmount
}

// candidates returns the amount-looking substrings in order of discovery, deduplicated.
func candidates(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			s := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			if isPlausibleAmount(s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// isPlausibleAmount rejects phone numbers, reference numbers and ids that
// merely look numeric.
func isPlausibleAmount(s string) bool {
	low := strings.ToLower(s)
	d := onlyDigits(numberPart(s))
	if d == "" || d[0] == '0' {
		return false
	}
	if hasCurrency(low) || strings.Contains(low, "total") || strings.Contains(low, "jumlah") {
		return len(d) <= 12
	}
	if strings.ContainsAny(s, ".,") {
		return len(d) >= 4 && len(d) <= 12
	}
	if len(d) < 5 || len(d) > 7 {
		return false
	}
	// bare numbers are usually ids unless they end in round thousands
	return strings.HasSuffix(d, "000") || strings.HasSuffix(d, "500")
}

func bestAmount(cands []string) (int64, string, bool) {
	var (
		bestAmt   int64
		bestRaw   string
		bestScore = -1
	)
	for _, raw := range cands {
		amt, err := ParseAmount(raw)
		if err != nil || amt <= 0 {
			continue
		}
		sc := score(raw)
		if sc > bestScore || (sc == bestScore && amt > bestAmt) {
			bestAmt, bestRaw, bestScore = amt, raw, sc
		}
	}
	return bestAmt, bestRaw, bestScore >= 0
}

func score(raw string) int {
	s := 0
	low := strings.ToLower(raw)
	if hasCurrency(low) {
		s += 10
	}
	if strings.Contains(low, "total") || strings.Contains(low, "jumlah") {
		s += 8
	}
	if strings.ContainsAny(raw, ".,") {
		s += 5
	}
	if centsRE.MatchString(raw) {
		s += 3
	}
	if len(onlyDigits(raw)) >= 4 {
		s++
	}
	return s
}

// ParseAmount turns a matched substring into whole currency units. A trailing
// two-digit cents part is dropped (10.000,00 -> 10000).
func ParseAmount(found string) (int64, error) {
	num := numberPart(found)
	if num == "" {
		return 0, fmt.Errorf("no digits in %q", found)
	}
	if centsRE.MatchString(num) {
		num = num[:len(num)-3]
	}
	digits := onlyDigits(num)
	if digits == "" {
		return 0, fmt.Errorf("no digits in %q", found)
	}
	amt, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", digits, err)
	}
	return amt, nil
}

// numberPart strips any leading words or currency marker, keeping the numeric tail.
func numberPart(s string) string {
	i := strings.IndexAny(s, "0123456789")
	if i < 0 {
		return ""
	}
	return strings.TrimRight(s[i:], ".,")
}

func hasCurrency(low string) bool {
	return strings.Contains(low, "rp") || strings.Contains(low, "idr")
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// normalizeText collapses whitespace and line breaks.
func normalizeText(t string) string {
	return strings.Join(strings.Fields(t), " ")
}
