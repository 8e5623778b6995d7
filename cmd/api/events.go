package main

import "net/http"

// listEventsHandler godoc
//
//	@Summary		List events
//	@Description	Events of the caller's institution and kind, in catalog order
//	@Tags			events
//	@Produce		json
//	@Success		200	{array}		store.Event
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/events [get]
func (app *application) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	account := getAccountFromContext(r)

	events, err := app.store.Events.ListByInstitution(r.Context(), account.InstitutionID, account.InstitutionKind)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, events); err != nil {
		app.internalServerError(w, r, err)
	}
}
