package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParsedLineItem is one extracted row. Amount stays a display string such as
// "$125.50"; AmountValue recovers the number.
type ParsedLineItem struct {
	Date   string `json:"Date"`
	Name   string `json:"Name"`
	Amount string `json:"Amount"`
}

// UnmarshalJSON accepts lowercase keys and numeric amounts, both of which
// show up in backend output depending on the formatting model.
func (p *ParsedLineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pick := func(keys ...string) json.RawMessage {
		for _, k := range keys {
			if v, ok := raw[k]; ok {
				return v
			}
		}
		return nil
	}

	p.Date = rawText(pick("Date", "date"))
	p.Name = rawText(pick("Name", "name", "Description", "description"))
	p.Amount = rawText(pick("Amount", "amount"))
	return nil
}

func rawText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	// numbers and anything else keep their literal text
	return string(v)
}

// leadingAmount is the number an amount string starts with once currency
// marks are gone; anything after it (a currency code, a note) is ignored.
var leadingAmount = regexp.MustCompile(`^(-?)(\d+(?:\.\d+)?|\.\d+)`)

// AmountValue strips currency symbols, currency codes and grouping separators
// and parses the leading number. Unparseable amounts count as zero.
func (p ParsedLineItem) AmountValue() decimal.Decimal {
	return ParseAmount(p.Amount)
}

func ParseAmount(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Sc, r), r == ',', unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimLeftFunc(cleaned, unicode.IsLetter)

	// accounting negatives: (12.50)
	negative := false
	if strings.HasPrefix(cleaned, "(") {
		negative = true
		cleaned = cleaned[1:]
	}

	m := leadingAmount.FindStringSubmatch(cleaned)
	if m == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m[2])
	if err != nil {
		return decimal.Zero
	}
	if negative != (m[1] == "-") {
		d = d.Neg()
	}
	return d
}
