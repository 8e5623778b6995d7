// Package analytics derives aggregates over the feedback log. Every function
// is a full recompute over the slices it is handed; nothing is cached or
// maintained incrementally, so two calls without intervening submissions
// always produce identical output.
package analytics

import (
	"sort"
	"time"

	"sentifeedback/internal/sentiment"
	"sentifeedback/internal/store"
)

// recentLimit caps how many entries a summary carries back to the dashboard.
const recentLimit = 5

type Breakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

func (b *Breakdown) add(score float64) {
	switch sentiment.Classify(score) {
	case sentiment.Positive:
		b.Positive++
	case sentiment.Negative:
		b.Negative++
	default:
		b.Neutral++
	}
}

// EventSummary is the derived, non-persisted aggregate for one event.
// AverageRating is 0 when FeedbackCount is 0; clients must check the count
// before rendering the average.
type EventSummary struct {
	EventID            int64            `json:"event_id"`
	EventName          string           `json:"event_name"`
	AverageRating      float64          `json:"average_rating"`
	FeedbackCount      int              `json:"feedback_count"`
	SentimentBreakdown Breakdown        `json:"sentiment_breakdown"`
	RecentFeedback     []store.Feedback `json:"recent_feedback"`
}

// Summarize builds one EventSummary per event, in the order the events are
// given (catalog order).
func Summarize(events []store.Event, feedbacks []store.Feedback) []EventSummary {
	summaries := make([]EventSummary, 0, len(events))
	for _, event := range events {
		var entries []store.Feedback
		for _, f := range feedbacks {
			if f.EventID == event.ID {
				entries = append(entries, f)
			}
		}

		summary := EventSummary{
			EventID:       event.ID,
			EventName:     event.Name,
			FeedbackCount: len(entries),
		}

		var totalRating int
		for _, f := range entries {
			totalRating += f.Rating
			summary.SentimentBreakdown.add(f.SentimentScore)
		}
		if len(entries) > 0 {
			summary.AverageRating = float64(totalRating) / float64(len(entries))
		}

		recent := make([]store.Feedback, len(entries))
		copy(recent, entries)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		})
		if len(recent) > recentLimit {
			recent = recent[:recentLimit]
		}
		summary.RecentFeedback = recent

		summaries = append(summaries, summary)
	}
	return summaries
}

type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// Overview holds institution-wide totals for the analytics header cards and
// the rating distribution bar chart.
type Overview struct {
	FeedbackCount      int           `json:"feedback_count"`
	AverageRating      float64       `json:"average_rating"`
	SentimentBreakdown Breakdown     `json:"sentiment_breakdown"`
	RatingDistribution []RatingCount `json:"rating_distribution"`
}

func Overall(feedbacks []store.Feedback) Overview {
	overview := Overview{
		FeedbackCount:      len(feedbacks),
		RatingDistribution: make([]RatingCount, 5),
	}
	for i := range overview.RatingDistribution {
		overview.RatingDistribution[i].Rating = i + 1
	}

	var totalRating int
	for _, f := range feedbacks {
		totalRating += f.Rating
		overview.SentimentBreakdown.add(f.SentimentScore)
		if f.Rating >= 1 && f.Rating <= 5 {
			overview.RatingDistribution[f.Rating-1].Count++
		}
	}
	if len(feedbacks) > 0 {
		overview.AverageRating = float64(totalRating) / float64(len(feedbacks))
	}
	return overview
}

type TrendPoint struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
}

// Trend buckets feedback by calendar day over the last days days, ending at
// now, oldest bucket first. Days outside the window are dropped.
func Trend(feedbacks []store.Feedback, days int, now time.Time) []TrendPoint {
	points := make([]TrendPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02")
		points[i].Date = day
		index[day] = i
	}

	for _, f := range feedbacks {
		day := f.CreatedAt.In(now.Location()).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			continue
		}
		switch sentiment.Classify(f.SentimentScore) {
		case sentiment.Positive:
			points[i].Positive++
		case sentiment.Negative:
			points[i].Negative++
		default:
			points[i].Neutral++
		}
	}
	return points
}
