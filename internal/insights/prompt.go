package insights

import (
	"fmt"
	"strings"

	"github.com/amityadav/trendfinder/prompts"
)

var defaultPrompts = map[Intent]string{
	IntentTrendingIdeas: prompts.TrendingIdeas,
	IntentTopDownloads:  prompts.TopDownloads,
	IntentPopularNiches: prompts.PopularNiches,
	IntentDownloadTiers: prompts.DownloadTiers,
	IntentRecentTrends:  prompts.RecentTrends,
}

// Prompt builds the full prompt for an intent. query is only used by the
// custom intent and is trimmed before interpolation.
func Prompt(intent Intent, query string) (string, error) {
	var body string
	if intent == IntentCustom {
		query = strings.TrimSpace(query)
		if query == "" {
			return "", fmt.Errorf("custom query is empty")
		}
		body = fmt.Sprintf(strings.TrimSpace(prompts.CustomSearch), query)
	} else {
		tmpl, ok := defaultPrompts[intent]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
		}
		body = strings.TrimSpace(tmpl)
	}
	return body + "\n" + strings.TrimSpace(prompts.JSONInstruction) + "\n", nil
}
