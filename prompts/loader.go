package prompts

import (
	_ "embed"
)

//go:embed json_instruction.txt
var JSONInstruction string

//go:embed trending_ideas.txt
var TrendingIdeas string

//go:embed top_downloads.txt
var TopDownloads string

//go:embed popular_niches.txt
var PopularNiches string

//go:embed download_tiers.txt
var DownloadTiers string

//go:embed recent_trends.txt
var RecentTrends string

// CustomSearch takes the trimmed user query as its only %s verb.
//
//go:embed custom_search.txt
var CustomSearch string
