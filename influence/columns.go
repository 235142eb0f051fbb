// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"strings"
	"unicode"
)

// Column is the canonical role a CSV header is mapped to.
type Column string

const (
	ColFollowers   Column = "followers"
	ColLikes       Column = "likes"
	ColShares      Column = "shares"
	ColComments    Column = "comments"
	ColLabel       Column = "influence_label"
	ColAccount     Column = "account_id"
	ColPerformance Column = "performance_level"
)

// ColumnMap maps canonical columns to header indexes.
type ColumnMap map[Column]int

// NormalizeHeader lowercases and trims a header and turns spaces into underscores.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

type columnRule struct {
	target   Column
	contains []string
	tokens   []string
}

func (r columnRule) matches(name string) bool {
	for _, s := range r.contains {
		if strings.Contains(name, s) {
			return true
		}
	}
	if len(r.tokens) > 0 {
		for _, tok := range strings.FieldsFunc(name, func(c rune) bool {
			return !unicode.IsLetter(c) && !unicode.IsDigit(c)
		}) {
			for _, want := range r.tokens {
				if tok == want {
					return true
				}
			}
		}
	}
	return false
}

var (
	followersRule = columnRule{target: ColFollowers, contains: []string{"follower", "sub", "friend"}}
	likesRule     = columnRule{target: ColLikes, contains: []string{"like", "view", "received"}}
	sharesRule    = columnRule{target: ColShares, contains: []string{"share", "retweet"}}
	commentsRule  = columnRule{target: ColComments, contains: []string{"comment"}}

	trainingRules = []columnRule{
		followersRule,
		likesRule,
		sharesRule,
		commentsRule,
		{target: ColLabel, contains: []string{"performance", "influence", "label"}},
	}

	// "id" only counts as a whole token so "video_views" stays a likes column.
	analyticsRules = []columnRule{
		{target: ColAccount, contains: []string{"channel", "title", "account", "user"}, tokens: []string{"id"}},
		followersRule,
		likesRule,
		sharesRule,
		commentsRule,
		{target: ColPerformance, contains: []string{"performance", "influence"}},
	}
)

// MapTrainingColumns maps headers to followers, likes, shares, comments and
// the influence label.
func MapTrainingColumns(header []string) ColumnMap {
	return mapColumns(header, trainingRules)
}

// MapAnalyticsColumns maps headers to account, engagement and performance columns.
func MapAnalyticsColumns(header []string) ColumnMap {
	return mapColumns(header, analyticsRules)
}

// mapColumns assigns each header to the first rule it matches. A target is
// claimed by the leftmost matching header; later headers matching the same
// rule are ignored rather than tried against later rules.
func mapColumns(header []string, rules []columnRule) ColumnMap {
	m := make(ColumnMap, len(rules))
	for i, h := range header {
		name := NormalizeHeader(h)
		for _, r := range rules {
			if !r.matches(name) {
				continue
			}
			if _, taken := m[r.target]; !taken {
				m[r.target] = i
			}
			break
		}
	}
	return m
}
