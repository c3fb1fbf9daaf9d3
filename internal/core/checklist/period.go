package checklist

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period は ISO-8601 の日付期間 (PnYnMnWnD) を表します。
// 時刻部 (T 以降) はこのドメインでは扱いません。
type Period struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// ParsePeriod は "P6M" や "P1Y2M10D" 形式の文字列を解析します。
// 負の値や時刻指定子を含む文字列はエラーになります。
func ParsePeriod(raw string) (Period, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || (s[0] != 'P' && s[0] != 'p') {
		return Period{}, fmt.Errorf("parse period %q: %w", raw, ErrInvalidPeriod)
	}

	var p Period
	num := ""
	seen := map[byte]bool{}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			num += string(c)
		case c == 'Y' || c == 'y' || c == 'M' || c == 'm' || c == 'W' || c == 'w' || c == 'D' || c == 'd':
			if num == "" {
				return Period{}, fmt.Errorf("parse period %q: missing digits: %w", raw, ErrInvalidPeriod)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return Period{}, fmt.Errorf("parse period %q: %w", raw, ErrInvalidPeriod)
			}
			unit := upper(c)
			if seen[unit] {
				return Period{}, fmt.Errorf("parse period %q: repeated designator %c: %w", raw, unit, ErrInvalidPeriod)
			}
			seen[unit] = true
			switch unit {
			case 'Y':
				p.Years = n
			case 'M':
				p.Months = n
			case 'W':
				p.Weeks = n
			case 'D':
				p.Days = n
			}
			num = ""
		default:
			return Period{}, fmt.Errorf("parse period %q: unexpected %q: %w", raw, string(c), ErrInvalidPeriod)
		}
	}

	if num != "" {
		return Period{}, fmt.Errorf("parse period %q: trailing digits: %w", raw, ErrInvalidPeriod)
	}
	if len(seen) == 0 {
		return Period{}, fmt.Errorf("parse period %q: empty period: %w", raw, ErrInvalidPeriod)
	}

	return p, nil
}

// MustParsePeriod は ParsePeriod のパニック版です。パッケージ定数専用です。
func MustParsePeriod(raw string) Period {
	p, err := ParsePeriod(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// AddTo は t に期間を加算した日付を返します。
func (p Period) AddTo(t time.Time) time.Time {
	return t.AddDate(p.Years, p.Months, p.Weeks*7+p.Days)
}

// IsZero は全フィールドがゼロかどうかを返します。
func (p Period) IsZero() bool {
	return p == Period{}
}

// String は ISO-8601 表現を返します。ゼロ期間は "P0D" になります。
func (p Period) String() string {
	if p.IsZero() {
		return "P0D"
	}
	var b strings.Builder
	b.WriteByte('P')
	if p.Years > 0 {
		fmt.Fprintf(&b, "%dY", p.Years)
	}
	if p.Months > 0 {
		fmt.Fprintf(&b, "%dM", p.Months)
	}
	if p.Weeks > 0 {
		fmt.Fprintf(&b, "%dW", p.Weeks)
	}
	if p.Days > 0 {
		fmt.Fprintf(&b, "%dD", p.Days)
	}
	return b.String()
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
