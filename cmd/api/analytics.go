package main

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"sentifeedback/internal/analytics"
	"sentifeedback/internal/params"
	"sentifeedback/internal/sentiment"
	"sentifeedback/internal/store"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 30
)

// feedbackSummaryHandler godoc
//
//	@Summary		Per-event feedback summaries
//	@Description	One summary per event of the admin's institution, in catalog order. Recomputed from the full feedback log on every call.
//	@Tags			analytics
//	@Produce		json
//	@Success		200	{array}		analytics.EventSummary
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/analytics/summary [get]
func (app *application) feedbackSummaryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	account := getAccountFromContext(r)

	events, err := app.store.Events.ListByInstitution(ctx, account.InstitutionID, "")
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	feedbacks, err := app.store.Feedbacks.ListByInstitution(ctx, account.InstitutionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	summaries := analytics.Summarize(events, feedbacks)

	if err := app.jsonResponse(w, http.StatusOK, summaries); err != nil {
		app.internalServerError(w, r, err)
	}
}

// overviewHandler godoc
//
//	@Summary		Institution-wide overview
//	@Description	Totals, average rating, sentiment breakdown, and rating distribution across all events of the admin's institution
//	@Tags			analytics
//	@Produce		json
//	@Success		200	{object}	analytics.Overview
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/analytics/overview [get]
func (app *application) overviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	account := getAccountFromContext(r)

	feedbacks, err := app.store.Feedbacks.ListByInstitution(ctx, account.InstitutionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	overview := analytics.Overall(feedbacks)

	if err := app.jsonResponse(w, http.StatusOK, overview); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AdminFeedbackResponse struct {
	Feedback   []store.Feedback  `json:"feedback"`
	Pagination params.Pagination `json:"pagination"`
}

// adminFeedbackHandler godoc
//
//	@Summary		Browse institution feedback
//	@Description	Paginated raw feedback log across all events of the admin's institution, with optional rating, sentiment band, and description search filters. Sortable by created_at, rating, or sentiment.
//	@Tags			analytics
//	@Produce		json
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			limit		query		int		false	"Items per page"	default(20)
//	@Param			rating		query		int		false	"Exact star rating (1-5)"
//	@Param			sentiment	query		string	false	"Sentiment band"	Enums(positive, neutral, negative)
//	@Param			search		query		string	false	"Substring match on the description"
//	@Param			sort		query		string	false	"Sort field"	Enums(created_at, rating, sentiment)	default(created_at)
//	@Param			order		query		string	false	"Sort direction"	Enums(asc, desc)	default(desc)
//	@Success		200			{object}	AdminFeedbackResponse
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/analytics/feedback [get]
func (app *application) adminFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	account := getAccountFromContext(r)
	q := r.URL.Query()

	rating := 0
	if ratingStr := strings.TrimSpace(q.Get("rating")); ratingStr != "" {
		parsed, err := strconv.Atoi(ratingStr)
		if err != nil || parsed < 1 || parsed > 5 {
			app.badRequestResponse(w, r, errors.New("rating must be between 1 and 5"))
			return
		}
		rating = parsed
	}

	band := sentiment.Band(strings.ToLower(strings.TrimSpace(q.Get("sentiment"))))
	switch band {
	case "", sentiment.Positive, sentiment.Neutral, sentiment.Negative:
	default:
		app.badRequestResponse(w, r, errors.New("sentiment must be positive, neutral, or negative"))
		return
	}

	search := strings.ToLower(strings.TrimSpace(q.Get("search")))

	feedbacks, err := app.store.Feedbacks.ListByInstitution(ctx, account.InstitutionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	filtered := make([]store.Feedback, 0, len(feedbacks))
	for _, f := range feedbacks {
		if rating != 0 && f.Rating != rating {
			continue
		}
		if band != "" && sentiment.Classify(f.SentimentScore) != band {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(f.Description), search) {
			continue
		}
		filtered = append(filtered, f)
	}

	sortFeedback(filtered, q.Get("sort"), q.Get("order"))

	p := params.ParsePagination(q)
	p.ComputeMeta(len(filtered))

	page := filtered
	if p.Offset >= len(page) {
		page = nil
	} else {
		page = page[p.Offset:]
		if len(page) > p.Limit {
			page = page[:p.Limit]
		}
	}

	out := AdminFeedbackResponse{
		Feedback:   page,
		Pagination: p,
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sortFeedback orders the slice by the requested column. Unknown fields fall
// back to created_at; anything but "asc" sorts descending.
func sortFeedback(feedbacks []store.Feedback, field, order string) {
	asc := order == "asc"
	sort.SliceStable(feedbacks, func(i, j int) bool {
		if !asc {
			i, j = j, i
		}
		switch field {
		case "rating":
			return feedbacks[i].Rating < feedbacks[j].Rating
		case "sentiment":
			return feedbacks[i].SentimentScore < feedbacks[j].SentimentScore
		default:
			return feedbacks[i].CreatedAt.Before(feedbacks[j].CreatedAt)
		}
	})
}

// sentimentTrendHandler godoc
//
//	@Summary		Sentiment trend
//	@Description	Daily positive/neutral/negative counts over the requested window, oldest day first
//	@Tags			analytics
//	@Produce		json
//	@Param			days	query		int	false	"Window in days (1-30)"	default(7)
//	@Success		200		{array}		analytics.TrendPoint
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/analytics/trend [get]
func (app *application) sentimentTrendHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	account := getAccountFromContext(r)

	days := defaultTrendDays
	if daysStr := strings.TrimSpace(r.URL.Query().Get("days")); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil {
			switch {
			case parsed < 1:
				days = 1
			case parsed > maxTrendDays:
				days = maxTrendDays
			default:
				days = parsed
			}
		}
	}

	feedbacks, err := app.store.Feedbacks.ListByInstitution(ctx, account.InstitutionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	trend := analytics.Trend(feedbacks, days, time.Now().UTC())

	if err := app.jsonResponse(w, http.StatusOK, trend); err != nil {
		app.internalServerError(w, r, err)
	}
}
