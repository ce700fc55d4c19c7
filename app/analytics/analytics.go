package analytics

import (
	"sort"
	"time"

	"github.com/kbox38/cignite/app/post"
)

const topHashtagCount = 5

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type Summary struct {
	TotalPosts     int            `json:"totalPosts"`
	TotalLikes     int            `json:"totalLikes"`
	TotalComments  int            `json:"totalComments"`
	TotalShares    int            `json:"totalShares"`
	AvgLikes       float64        `json:"avgLikes"`
	AvgComments    float64        `json:"avgComments"`
	AvgShares      float64        `json:"avgShares"`
	PostsPerWeek   float64        `json:"postsPerWeek"`
	TopHashtags    []TagCount     `json:"topHashtags,omitempty"`
	MediaBreakdown map[string]int `json:"mediaBreakdown,omitempty"`
}

// Compute derives engagement analytics from a user's cached posts. Pure
// arithmetic over whatever the cache holds; an empty list yields a zero
// summary.
func Compute(posts []post.Post) Summary {
	summary := Summary{TotalPosts: len(posts)}
	if len(posts) == 0 {
		return summary
	}

	hashtags := make(map[string]int)
	media := make(map[string]int)
	var oldest, newest int64

	for _, p := range posts {
		summary.TotalLikes += p.Engagement.Likes
		summary.TotalComments += p.Engagement.Comments
		summary.TotalShares += p.Engagement.Shares

		for _, tag := range p.Hashtags {
			hashtags[tag]++
		}
		media[string(p.MediaType)]++

		if oldest == 0 || p.CreatedAt < oldest {
			oldest = p.CreatedAt
		}
		if p.CreatedAt > newest {
			newest = p.CreatedAt
		}
	}

	count := float64(len(posts))
	summary.AvgLikes = float64(summary.TotalLikes) / count
	summary.AvgComments = float64(summary.TotalComments) / count
	summary.AvgShares = float64(summary.TotalShares) / count
	summary.PostsPerWeek = postsPerWeek(len(posts), oldest, newest)
	summary.TopHashtags = topTags(hashtags)
	summary.MediaBreakdown = media

	return summary
}

func postsPerWeek(count int, oldest, newest int64) float64 {
	span := time.Duration(newest-oldest) * time.Millisecond
	weeks := span.Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}
	return float64(count) / weeks
}

func topTags(counts map[string]int) []TagCount {
	if len(counts) == 0 {
		return nil
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})

	if len(tags) > topHashtagCount {
		tags = tags[:topHashtagCount]
	}
	return tags
}
