package main

import "net/http"

// getCurrentAccountHandler godoc
//
//	@Summary		Current account
//	@Description	Returns the authenticated account without sensitive fields
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	store.Account
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentAccountHandler(w http.ResponseWriter, r *http.Request) {
	account := getAccountFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, account); err != nil {
		app.internalServerError(w, r, err)
	}
}
