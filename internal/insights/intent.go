package insights

import "errors"

// ErrUnknownIntent is returned for intent names outside the fixed set
var ErrUnknownIntent = errors.New("unknown intent")

// Intent is one of the six fixed query types
type Intent string

const (
	IntentTrendingIdeas Intent = "ideas"
	IntentTopDownloads  Intent = "downloads"
	IntentPopularNiches Intent = "niches"
	IntentDownloadTiers Intent = "downloadsByRange"
	IntentRecentTrends  Intent = "recentTrends"
	IntentCustom        Intent = "customSearch"
)

type intentInfo struct {
	title   string
	failure string
}

var intentTable = map[Intent]intentInfo{
	IntentTrendingIdeas: {"Trending App Ideas", "Failed to load trending ideas."},
	IntentTopDownloads:  {"Top Downloaded Apps", "Failed to load top downloaded apps."},
	IntentPopularNiches: {"Popular & Profitable Niches", "Failed to load popular niches."},
	IntentDownloadTiers: {"High-Growth Apps by Downloads", "Failed to load apps by downloads."},
	IntentRecentTrends:  {"Trending in the Last 2 Weeks", "Failed to load recent trends."},
	IntentCustom:        {"Custom Search", ""},
}

// DefaultIntents returns the five canned intents in dispatch order
func DefaultIntents() []Intent {
	return []Intent{
		IntentTrendingIdeas,
		IntentTopDownloads,
		IntentRecentTrends,
		IntentDownloadTiers,
		IntentPopularNiches,
	}
}

// AllIntents returns every intent in display order, custom search first
func AllIntents() []Intent {
	return []Intent{
		IntentCustom,
		IntentRecentTrends,
		IntentTrendingIdeas,
		IntentTopDownloads,
		IntentDownloadTiers,
		IntentPopularNiches,
	}
}

// IsDefault reports whether the intent is one of the five canned ones
func (i Intent) IsDefault() bool {
	_, ok := intentTable[i]
	return ok && i != IntentCustom
}

// Title is the section heading for the intent
func (i Intent) Title(customQuery string) string {
	if i == IntentCustom && customQuery != "" {
		return `Results for "` + customQuery + `"`
	}
	return intentTable[i].title
}

// FailureMessage is the fixed message shown when the intent's request fails
func (i Intent) FailureMessage(customQuery string) string {
	if i == IntentCustom {
		return `Failed to get results for "` + customQuery + `".`
	}
	if info, ok := intentTable[i]; ok {
		return info.failure
	}
	return "Failed to load results."
}
