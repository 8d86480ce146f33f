// Package profile holds per-game keyword weight dictionaries used by the
// intent-aware reranker. Profiles are built once at startup and read-only
// afterwards; a shared generic-gaming dictionary backs every game.
package profile

// KeywordProfile is one game's weighted domain vocabulary. Term keys are
// lowercase; weights express how strongly a term signals relevance.
type KeywordProfile struct {
	// Game is the registry identifier (e.g. "helldiver2").
	Game string

	// Enemy terms: boss and enemy unit names.
	Enemy map[string]float64

	// Tactical terms: weak points, mechanics, victory conditions.
	Tactical map[string]float64

	// Item terms: weapons, tools, consumables.
	Item map[string]float64

	// Special terms: characters, factions, civilizations.
	Special map[string]float64

	// Common terms shared across games (guide, build, tier, ...).
	Common map[string]float64
}

// Weight returns the highest weight any dictionary assigns to term, or 0.
// Game-specific dictionaries are consulted before the common one.
func (p *KeywordProfile) Weight(term string) float64 {
	max := 0.0
	for _, dict := range []map[string]float64{p.Enemy, p.Tactical, p.Item, p.Special, p.Common} {
		if w, ok := dict[term]; ok && w > max {
			max = w
		}
	}
	return max
}

// Terms iterates every term/weight pair across all dictionaries.
// Terms present in several dictionaries are visited once per dictionary.
func (p *KeywordProfile) Terms(fn func(term string, weight float64)) {
	for _, dict := range []map[string]float64{p.Enemy, p.Tactical, p.Item, p.Special, p.Common} {
		for term, w := range dict {
			fn(term, w)
		}
	}
}

// commonGamingTerms is the cross-game dictionary every profile shares.
var commonGamingTerms = map[string]float64{
	"guide":    2.0,
	"strategy": 2.0,
	"tips":     2.0,
	"build":    2.5,
	"loadout":  2.5,
	"best":     2.0,
	"meta":     2.0,
	"tier":     2.0,
	"rank":     2.0,
	"damage":   2.0,
	"health":   2.0,
	"stats":    1.5,
	"upgrade":  2.0,
	"level":    1.5,
	"skill":    2.0,
	"ability":  2.0,
	"攻略":       2.0,
	"策略":       2.0,
	"技巧":       2.0,
	"配装":       2.5,
	"最佳":       2.0,
	"推荐":       2.0,
	"等级":       1.5,
	"技能":       2.0,
}
