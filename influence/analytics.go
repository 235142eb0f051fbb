// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

const (
	PlatformSocial = "Social"

	defaultPerformance = "Standard"
	viralQuantile      = 0.9
)

var platforms = []struct{ keyword, name string }{
	{"youtube", "YouTube"},
	{"facebook", "Facebook"},
	{"instagram", "Instagram"},
	{"twitter", "Twitter"},
	{"tiktok", "TikTok"},
}

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Influencer is one account's engagement in an analytics report.
type Influencer struct {
	AccountID        string  `json:"account_id"`
	Followers        int64   `json:"followers"`
	Likes            int64   `json:"likes"`
	Shares           int64   `json:"shares"`
	Comments         int64   `json:"comments"`
	TotalEngagement  int64   `json:"total_engagement"`
	EngagementRate   float64 `json:"engagement_rate"`
	IsViral          bool    `json:"is_viral"`
	PerformanceLevel string  `json:"performance_level"`
}

// Report ranks the accounts of one dataset by total engagement.
type Report struct {
	Message        string       `json:"message,omitempty"`
	TotalAnalyzed  int          `json:"total_analyzed"`
	ViralThreshold int64        `json:"viral_threshold"`
	Influencers    []Influencer `json:"influencers"`
	Platform       string       `json:"platform"`
}

// EmptyReport is returned when there is no dataset to analyze.
func EmptyReport() Report {
	return Report{Message: "Empty", Influencers: []Influencer{}, Platform: PlatformSocial}
}

// DetectPlatform guesses the source network from a dataset's file name.
func DetectPlatform(filename string) string {
	name := strings.ToLower(filename)
	for _, p := range platforms {
		if strings.Contains(name, p.keyword) {
			return p.name
		}
	}
	return PlatformSocial
}

// TopInfluencers returns the limit accounts with the highest total
// engagement. Accounts at or above the 90th percentile of engagement are
// flagged viral.
func TopInfluencers(t *Table, limit int, platform string) Report {
	cols := MapAnalyticsColumns(t.Header)

	all := make([]Influencer, t.Len())
	totals := make([]float64, t.Len())
	for i := range all {
		followers := t.Number(i, cols, ColFollowers)
		likes := t.Number(i, cols, ColLikes)
		shares := t.Number(i, cols, ColShares)
		comments := t.Number(i, cols, ColComments)
		total := likes + shares + comments

		account := fmt.Sprintf("User_%d", i)
		if idx, ok := cols[ColAccount]; ok {
			account = t.Cell(i, idx)
		}
		perf := defaultPerformance
		if idx, ok := cols[ColPerformance]; ok {
			perf = capitalize(t.Cell(i, idx))
		}

		all[i] = Influencer{
			AccountID:        account,
			Followers:        int64(followers),
			Likes:            int64(likes),
			Shares:           int64(shares),
			Comments:         int64(comments),
			TotalEngagement:  int64(total),
			EngagementRate:   math.Round(EngagementRate(followers, likes, shares, comments)*100*100) / 100,
			PerformanceLevel: perf,
		}
		totals[i] = total
	}

	threshold := linearQuantile(totals, viralQuantile)
	for i := range all {
		all[i].IsViral = totals[i] >= threshold
	}

	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] > totals[order[b]] })
	if limit < len(order) {
		order = order[:limit]
	}

	top := make([]Influencer, len(order))
	for i, j := range order {
		top[i] = all[j]
	}
	return Report{
		TotalAnalyzed:  t.Len(),
		ViralThreshold: int64(threshold),
		Influencers:    top,
		Platform:       platform,
	}
}

// linearQuantile interpolates between the two closest ranks at position
// p*(n-1) of the sorted values. It returns 0 for no values.
func linearQuantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Totals are dataset-wide engagement sums.
type Totals struct {
	Likes    int64
	Shares   int64
	Comments int64
	Records  int
}

// Summarize sums the first likes (like or view), shares (share or retweet)
// and comments columns of t.
func Summarize(t *Table) Totals {
	likes, shares, comments := -1, -1, -1
	for i, h := range t.Header {
		name := NormalizeHeader(h)
		if likes < 0 && (strings.Contains(name, "like") || strings.Contains(name, "view")) {
			likes = i
		}
		if shares < 0 && (strings.Contains(name, "share") || strings.Contains(name, "retweet")) {
			shares = i
		}
		if comments < 0 && strings.Contains(name, "comment") {
			comments = i
		}
	}

	sum := func(col int) int64 {
		if col < 0 {
			return 0
		}
		var s float64
		for r := range t.Rows {
			s += ParseNumber(t.Cell(r, col))
		}
		return int64(s)
	}
	return Totals{
		Likes:    sum(likes),
		Shares:   sum(shares),
		Comments: sum(comments),
		Records:  t.Len(),
	}
}

// TrendPoint is one month of the synthetic engagement trend.
type TrendPoint struct {
	Month    string `json:"month"`
	Likes    int64  `json:"likes"`
	Shares   int64  `json:"shares"`
	Comments int64  `json:"comments"`
}

// EngagementTrend spreads the totals over a twelve-month ramp: month i gets
// total*0.05*(i+1)/12 + total*0.03.
func EngagementTrend(t Totals) []TrendPoint {
	ramp := func(total int64, i int) int64 {
		f := float64(total)
		return int64(f*0.05*float64(i+1)/float64(len(months)) + f*0.03)
	}
	trend := make([]TrendPoint, len(months))
	for i, m := range months {
		trend[i] = TrendPoint{
			Month:    m,
			Likes:    ramp(t.Likes, i),
			Shares:   ramp(t.Shares, i),
			Comments: ramp(t.Comments, i),
		}
	}
	return trend
}
