package classify

import "strings"

// Category is the closed set of content types a thread can be assigned to.
// Exactly these eight values exist for the lifetime of a run.
type Category int

const (
	CategoryAnimation Category = iota
	CategoryGames
	CategoryComics
	CategoryLightNovels
	CategoryVTuber
	CategoryMerchandise
	CategoryMusic
	CategoryOther
)

// FallbackCategory is assigned whenever a classification cannot be
// confirmed by the model.
const FallbackCategory = CategoryOther

func (c Category) String() string {
	switch c {
	case CategoryAnimation:
		return "Animation"
	case CategoryGames:
		return "Games"
	case CategoryComics:
		return "Comics"
	case CategoryLightNovels:
		return "Light Novels"
	case CategoryVTuber:
		return "Virtual Streamer"
	case CategoryMerchandise:
		return "Merchandise"
	case CategoryMusic:
		return "Music"
	case CategoryOther:
		return "Other"
	default:
		return "Other"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categories returns the eight categories in canonical order. The order
// doubles as the match priority when scanning free-form model output.
func Categories() []Category {
	return []Category{
		CategoryAnimation,
		CategoryGames,
		CategoryComics,
		CategoryLightNovels,
		CategoryVTuber,
		CategoryMerchandise,
		CategoryMusic,
		CategoryOther,
	}
}

// SynonymTable maps normalized label strings to categories. A fixed table
// keeps label parsing reproducible across runs.
type SynonymTable map[string]Category

// DefaultSynonyms reproduces the label vocabulary the forum's posters and
// the model actually use, including the Chinese genre terms.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"animation": CategoryAnimation, "anime": CategoryAnimation,
		"动画": CategoryAnimation, "番剧": CategoryAnimation, "动画/番剧": CategoryAnimation,

		"games": CategoryGames, "game": CategoryGames, "gaming": CategoryGames,
		"游戏": CategoryGames, "手游": CategoryGames,

		"comics": CategoryComics, "comic": CategoryComics, "manga": CategoryComics,
		"漫画": CategoryComics,

		"light novels": CategoryLightNovels, "light novel": CategoryLightNovels,
		"lightnovel": CategoryLightNovels, "novel": CategoryLightNovels,
		"轻小说": CategoryLightNovels, "小说": CategoryLightNovels,

		"virtual streamer": CategoryVTuber, "vtuber": CategoryVTuber,
		"虚拟主播": CategoryVTuber, "主播": CategoryVTuber, "虚拟主播/vtuber": CategoryVTuber,

		"merchandise": CategoryMerchandise, "figure": CategoryMerchandise,
		"手办": CategoryMerchandise, "周边": CategoryMerchandise, "手办/周边": CategoryMerchandise,

		"music": CategoryMusic, "song": CategoryMusic,
		"音乐": CategoryMusic, "歌曲": CategoryMusic, "音乐/歌曲": CategoryMusic,

		"other": CategoryOther, "其他": CategoryOther,
	}
}

// normalizeLabel lowercases and strips the quoting and punctuation models
// like to wrap answers in.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'.,:;!?()[]{}*`)
	return strings.Join(strings.Fields(s), " ")
}

// ParseLabel resolves a raw model response to a category. Exact matches
// against canonical labels and the synonym table take priority; failing
// that, the response text is scanned for the first known term in category
// priority order. The second return is false when nothing was recognized.
func ParseLabel(raw string, synonyms SynonymTable) (Category, bool) {
	norm := normalizeLabel(raw)
	if norm == "" {
		return FallbackCategory, false
	}

	for _, c := range Categories() {
		if norm == strings.ToLower(c.String()) {
			return c, true
		}
	}
	if c, ok := synonyms[norm]; ok {
		return c, true
	}

	// Free-form answer: look for any known term, highest-priority
	// category first.
	for _, c := range Categories() {
		if c == CategoryOther {
			continue
		}
		if strings.Contains(norm, strings.ToLower(c.String())) {
			return c, true
		}
		for term, mapped := range synonyms {
			if mapped == c && strings.Contains(norm, term) {
				return c, true
			}
		}
	}

	return FallbackCategory, false
}
