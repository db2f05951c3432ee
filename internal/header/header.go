// Package header assigns corrupted table column headers to semantic roles.
// OCR and AI extraction frequently mangle header rows ("DESCR", "QUAN -",
// "U M"); reconstruction recovers which column holds what.
package header

import (
	"fmt"
	"strings"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/similarity"
	"github.com/norsteel/takeoff/pkg/utils"
)

// Role is a semantic column role in a line-item table.
type Role string

const (
	RoleItem        Role = "item"
	RoleDescription Role = "description"
	RoleQuantity    Role = "quantity"
	RoleUnit        Role = "unit"
)

// roleOrder fixes assignment priority. Core roles claim columns first so a
// combined header like "ITEM DESCRIPTION" resolves to description, not item.
var roleOrder = []Role{RoleDescription, RoleQuantity, RoleItem, RoleUnit}

// roleKeywords are listed in priority order within each role, so a table
// carrying both "MATERIAL CODE" and "DESCRIPTION" binds description to the
// DESCRIPTION column.
var roleKeywords = map[Role][]string{
	RoleItem:        {"ITEM", "POS", "LINE", "NO", "SN"},
	RoleDescription: {"DESCRIPTION", "DESIGNATION", "PARTICULARS", "COMMODITY", "MATERIAL"},
	RoleQuantity:    {"QTY", "QUANTITY"},
	RoleUnit:        {"UNIT", "UOM", "UNITS"},
}

// coreRoles carry most of the confidence weight; a table without a
// description or quantity column is not a usable line-item table.
var coreRoles = map[Role]bool{
	RoleDescription: true,
	RoleQuantity:    true,
}

// ColumnMatch records how one column was bound to a role.
type ColumnMatch struct {
	Column   int     `json:"column"`
	Cell     string  `json:"cell"`
	Keyword  string  `json:"keyword"`
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"`
}

// Reconstruction is the result of mapping a header row to roles.
type Reconstruction struct {
	ColumnMap   map[Role]ColumnMatch `json:"column_map"`
	Confidence  float64              `json:"confidence"`
	Diagnostics []string             `json:"diagnostics"`
}

// Resolved reports whether both core roles were bound.
func (r *Reconstruction) Resolved() bool {
	_, d := r.ColumnMap[RoleDescription]
	_, q := r.ColumnMap[RoleQuantity]
	return d && q
}

// Reconstructor maps header rows to roles using exact, fuzzy, and
// partial-word strategies in that order.
type Reconstructor struct {
	cfg    *config.HeaderConfig
	kernel *similarity.Kernel
}

// NewReconstructor returns a reconstructor using the given similarity kernel.
func NewReconstructor(cfg *config.HeaderConfig, kernel *similarity.Kernel) *Reconstructor {
	return &Reconstructor{cfg: cfg, kernel: kernel}
}

// Reconstruct assigns each role to at most one column and each column to at
// most one role. Roles are tried in core-first order; within a role,
// strategies run in order across all remaining columns.
func (r *Reconstructor) Reconstruct(cells []string) Reconstruction {
	rec := Reconstruction{
		ColumnMap:   map[Role]ColumnMatch{},
		Diagnostics: []string{},
	}

	norms := make([]string, len(cells))
	for i, cell := range cells {
		norms[i] = normalizeCell(cell)
	}
	used := make(map[int]bool, len(cells))

	for _, role := range roleOrder {
		m, ok := r.bindRole(norms, used, roleKeywords[role])
		if !ok {
			rec.Diagnostics = append(rec.Diagnostics, fmt.Sprintf("%s: no column matched", role))
			continue
		}
		m.Cell = cells[m.Column]
		rec.ColumnMap[role] = m
		used[m.Column] = true
		rec.Diagnostics = append(rec.Diagnostics, fmt.Sprintf(
			"%s: column %d %q matched %q via %s (%.2f)",
			role, m.Column, m.Cell, m.Keyword, m.Strategy, m.Score))
	}

	conf := 0.0
	for role := range rec.ColumnMap {
		if coreRoles[role] {
			conf += r.cfg.CoreRoleWeight
		} else {
			conf += r.cfg.SecondaryRoleWeight
		}
	}
	rec.Confidence = utils.Clamp(conf, 0, 1)
	return rec
}

// bindRole finds the column for one role among unused columns.
// Containment hits resolve by keyword priority then column order; fuzzy hits
// resolve by similarity score; partial hits by keyword priority.
func (r *Reconstructor) bindRole(norms []string, used map[int]bool, keywords []string) (ColumnMatch, bool) {
	for _, kw := range keywords {
		for i, norm := range norms {
			if used[i] || norm == "" {
				continue
			}
			if containsKeyword(norm, kw) {
				return ColumnMatch{Column: i, Keyword: kw, Strategy: "contains", Score: 1.0}, true
			}
		}
	}

	best := ColumnMatch{Column: -1}
	for i, norm := range norms {
		if used[i] || norm == "" {
			continue
		}
		if m := r.kernel.BestMatch(norm, keywords, r.cfg.SimilarityThreshold); m != nil && m.Score > best.Score {
			best = ColumnMatch{Column: i, Keyword: m.Value, Strategy: "fuzzy", Score: m.Score}
		}
	}
	if best.Column >= 0 {
		return best, true
	}

	for _, kw := range keywords {
		for i, norm := range norms {
			if used[i] || norm == "" {
				continue
			}
			for _, tok := range strings.Fields(norm) {
				if commonPrefixLen(tok, kw) >= r.cfg.PartialMinStem {
					return ColumnMatch{Column: i, Keyword: kw, Strategy: "partial", Score: r.cfg.PartialScore}, true
				}
			}
		}
	}

	return ColumnMatch{}, false
}

// normalizeCell uppercases and strips punctuation so "S.No" and "Qty."
// compare as "S NO" and "QTY".
func normalizeCell(cell string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(cell) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsKeyword reports whether the normalized cell carries the keyword.
// Short keywords ("NO", "SN", "QTY") must appear as whole tokens so they
// cannot fire inside words like NOTES.
func containsKeyword(norm, kw string) bool {
	if len(kw) >= 4 {
		return strings.Contains(norm, kw)
	}
	for _, tok := range strings.Fields(norm) {
		if tok == kw {
			return true
		}
	}
	return false
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
