// internal/engine/rank.go
package engine

import (
	"sort"
	"strings"

	"posp-payout-workers/internal/models"
)

// line is one display line derived from an eligible row: the row's condition
// text with its payout, carrying enough provenance for ranking.
type line struct {
	company      string
	companyKey   string
	condition    string
	payout       float64
	importSeq    int
	rankOverride *int
}

// panIndiaInsurers always quote their own-damage and third-party commissions
// separately; both lines are co-displayed under one rank.
var panIndiaInsurers = map[string]bool{
	"national insurance": true,
	"new india":          true,
	"oriental insurance": true,
	"united india":       true,
}

// conditionKind classifies a condition line as own-damage, third-party, or
// neither.
func conditionKind(text string) string {
	t := norm(text)
	if strings.Contains(t, "commission on od") {
		return "od"
	}
	if strings.Contains(t, "commission on tp") {
		return "tp"
	}
	return ""
}

// blankConditionTokens are stored condition values that mean "no special
// condition".
var blankConditionTokens = map[string]bool{
	"": true, "no": true, "n/a": true, "all": true, "null": true, "none": true,
}

// conditionText renders a row's display condition. Passenger commercial rows
// prepend their seating slab ("32 seating, Commission on OD"); anything blank
// collapses to General.
func conditionText(row *models.RateRow, q *models.Query) string {
	cond := strings.TrimSpace(row.Condition)
	if blankConditionTokens[norm(cond)] {
		cond = ""
	}
	if isPCV(q) {
		seat := strings.TrimSpace(row.SeatingCapacity)
		if blankConditionTokens[norm(seat)] {
			seat = ""
		}
		switch {
		case seat != "" && cond != "":
			cond = seat + " seating, " + cond
		case seat != "":
			cond = seat + " seating"
		}
	}
	if cond == "" {
		return "General"
	}
	return cond
}

// scalePayout lifts fractional payouts onto the percentage scale the sheet
// otherwise uses.
func scalePayout(p float64) float64 {
	if p > 0 && p < 1 {
		return p * 100
	}
	return p
}

// buildLines collapses eligible rows into display lines, keeping the best
// payout when a company repeats the same condition. Distinct conditions are
// never merged.
func buildLines(rows []*models.RateRow, q *models.Query) []line {
	type key struct{ company, condition string }
	best := make(map[key]int)
	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		company := strings.TrimSpace(row.Company)
		if company == "" {
			company = "Unknown"
		}
		l := line{
			company:      company,
			companyKey:   strings.ToLower(company),
			condition:    conditionText(row, q),
			payout:       scalePayout(row.Payout),
			importSeq:    row.ImportSeq,
			rankOverride: row.RankOverride,
		}
		k := key{l.companyKey, norm(l.condition)}
		if i, ok := best[k]; ok {
			if l.payout > lines[i].payout {
				held := lines[i].rankOverride
				lines[i] = l
				lines[i].rankOverride = minOverride(held, l.rankOverride)
			} else {
				lines[i].rankOverride = minOverride(lines[i].rankOverride, l.rankOverride)
			}
			continue
		}
		best[k] = len(lines)
		lines = append(lines, l)
	}
	sortLines(lines)
	return lines
}

func minOverride(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a <= *b {
		return a
	}
	return b
}

// sortLines orders by payout descending only. The stable sort preserves the
// original import order on ties, which is the sole tiebreak: no secondary key.
func sortLines(lines []line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].payout > lines[j].payout
	})
}

// rankGroups assigns 1-based ranks to companies by first appearance in the
// sorted line sequence, keeps the top K companies, and collects every line of
// each kept company under its rank. A stored rank override wins over the
// computed position; the smallest override in the group applies.
func rankGroups(lines []line, topK int) []models.RankedGroup {
	if topK <= 0 {
		topK = 5
	}
	order := make([]string, 0, topK)
	seen := make(map[string]bool)
	for _, l := range lines {
		if seen[l.companyKey] {
			continue
		}
		seen[l.companyKey] = true
		order = append(order, l.companyKey)
		if len(order) >= topK {
			break
		}
	}

	groups := make([]models.RankedGroup, 0, len(order))
	for rank, companyKey := range order {
		var companyLines []line
		for _, l := range lines {
			if l.companyKey == companyKey {
				companyLines = append(companyLines, l)
			}
		}
		if len(companyLines) == 0 {
			continue
		}
		companyLines = promotePair(companyKey, companyLines)

		displayRank := rank + 1
		for _, l := range companyLines {
			if l.rankOverride != nil && *l.rankOverride > 0 && *l.rankOverride < displayRank {
				displayRank = *l.rankOverride
			}
		}

		g := models.RankedGroup{
			Rank:    displayRank,
			Company: companyLines[0].company,
			Lines:   make([]models.PayoutLine, 0, len(companyLines)),
		}
		for _, l := range companyLines {
			g.Lines = append(g.Lines, models.PayoutLine{Condition: l.condition, Payout: l.payout})
		}
		groups = append(groups, g)
	}
	return groups
}

// promotePair guarantees pan-India insurers show their best own-damage and
// best third-party lines first, in payout order, whenever both exist among the
// eligible lines. No line is ever dropped to make room.
func promotePair(companyKey string, companyLines []line) []line {
	if !panIndiaInsurers[companyKey] {
		return companyLines
	}
	odIdx, tpIdx := -1, -1
	for i, l := range companyLines {
		switch conditionKind(l.condition) {
		case "od":
			if odIdx < 0 {
				odIdx = i
			}
		case "tp":
			if tpIdx < 0 {
				tpIdx = i
			}
		}
	}
	if odIdx < 0 || tpIdx < 0 {
		return companyLines
	}
	first, second := odIdx, tpIdx
	if companyLines[second].payout > companyLines[first].payout {
		first, second = second, first
	}
	out := make([]line, 0, len(companyLines))
	out = append(out, companyLines[first], companyLines[second])
	for i, l := range companyLines {
		if i != first && i != second {
			out = append(out, l)
		}
	}
	return out
}
