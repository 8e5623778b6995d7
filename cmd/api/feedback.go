package main

import (
	"errors"
	"net/http"
	"time"

	"sentifeedback/internal/params"
	"sentifeedback/internal/sentiment"
	"sentifeedback/internal/store"

	"github.com/google/uuid"
)

type SubmitFeedbackPayload struct {
	EventID     int64  `json:"event_id" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Description string `json:"description" validate:"required,max=2000"`
	Improvement string `json:"improvement" validate:"omitempty,max=2000"`
}

// submitFeedbackHandler godoc
//
//	@Summary		Submit feedback
//	@Description	Appends a star-rated feedback entry; the sentiment score is computed from the description at submission time and stored with the entry
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SubmitFeedbackPayload		true	"Feedback"
//	@Success		201		{object}	store.Feedback				"Feedback recorded"
//	@Failure		400		{object}	ErrorBadRequestResponse		"Bad request"
//	@Failure		500		{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/feedback [post]
func (app *application) submitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	account := getAccountFromContext(r)

	var payload SubmitFeedbackPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	event, err := app.store.Events.GetByID(ctx, payload.EventID)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.badRequestResponse(w, r, errors.New("unknown event"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if event.InstitutionID != account.InstitutionID {
		app.badRequestResponse(w, r, errors.New("event does not belong to your institution"))
		return
	}

	now := time.Now().UTC()

	refCode, err := app.refCodes.Code(account.ID, now)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	feedback := &store.Feedback{
		ID:             uuid.New().String(),
		RefCode:        refCode,
		UserID:         account.ID,
		EventID:        event.ID,
		Rating:         payload.Rating,
		Description:    payload.Description,
		Improvement:    payload.Improvement,
		SentimentScore: sentiment.Score(payload.Description),
		CreatedAt:      now,
	}

	if err := app.store.Feedbacks.Create(ctx, feedback); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, feedback); err != nil {
		app.internalServerError(w, r, err)
	}
}

type FeedbackHistoryResponse struct {
	Feedback   []store.Feedback  `json:"feedback"`
	Pagination params.Pagination `json:"pagination"`
}

// myFeedbackHandler godoc
//
//	@Summary		My feedback history
//	@Description	Paginated feedback entries submitted by the caller, newest first
//	@Tags			feedback
//	@Produce		json
//	@Param			page	query		int	false	"Page number"		default(1)
//	@Param			limit	query		int	false	"Items per page"	default(20)
//	@Success		200		{object}	FeedbackHistoryResponse
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/feedback/mine [get]
func (app *application) myFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	account := getAccountFromContext(r)

	p := params.ParsePagination(r.URL.Query())

	feedback, err := app.store.Feedbacks.ListByUser(r.Context(), account.ID, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	total, err := app.store.Feedbacks.CountByUser(r.Context(), account.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	out := FeedbackHistoryResponse{
		Feedback:   feedback,
		Pagination: p,
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
