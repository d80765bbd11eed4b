package matrix

import (
	"github.com/Spok95/apu-builder/internal/domain/catalog"
)

// DefaultMatchThreshold - минимальный (строго больше) балл для автопривязки
const DefaultMatchThreshold = 0.4

// MatchScore - доля совпавших ключевых слов относительно большего из двух наборов.
func MatchScore(suggested, candidate []string) float64 {
	den := len(candidate)
	if len(suggested) > den {
		den = len(suggested)
	}
	if den == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(candidate))
	for _, w := range candidate {
		set[w] = struct{}{}
	}
	hits := 0
	for _, w := range suggested {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(den)
}

// BestMatch ищет запись каталога того же вида, лучше всего совпадающую с названием.
// Кандидаты без ключевых слов пропускаются; при равенстве баллов побеждает меньший id.
func BestMatch(kind catalog.Kind, name string, c *catalog.Cache, threshold float64) (catalog.Entry, float64, bool) {
	suggested := catalog.Keywords(name)
	if len(suggested) == 0 {
		return nil, 0, false
	}

	var (
		best      catalog.Entry
		bestScore float64
	)
	for _, cand := range c.Candidates(kind) {
		kw := cand.Keywords()
		if len(kw) == 0 {
			continue
		}
		score := MatchScore(suggested, kw)
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	if best == nil || bestScore <= threshold {
		return nil, bestScore, false
	}
	return best, bestScore, true
}

// AutoMatch привязывает неразрешённые предложения к существующим записям каталога.
// Если ни одна строка не изменилась, возвращается тот же срез и 0.
func AutoMatch(rows []Row, c *catalog.Cache, threshold float64) ([]Row, int) {
	if c == nil || len(rows) == 0 {
		return rows, 0
	}

	var out []Row
	matched := 0
	for i, r := range rows {
		if r.Linked() || r.SuggestedName == "" {
			continue
		}
		e, _, ok := BestMatch(r.Kind, r.SuggestedName, c, threshold)
		if !ok {
			continue
		}
		if out == nil {
			out = make([]Row, len(rows))
			copy(out, rows)
		}
		nr := r.clone()
		id := e.EntryID()
		nr.ResourceID = &id
		nr.InCatalog = true
		nr.UnitFreightPrice = Ptr(0.0)
		nr.SuggestedName = ""
		out[i] = nr
		matched++
	}
	if matched == 0 {
		return rows, 0
	}
	return out, matched
}
