package main

import "net/http"

// listInstitutionsHandler godoc
//
//	@Summary		List institutions
//	@Description	Seeded school and college catalog for the login and register pickers
//	@Tags			institutions
//	@Produce		json
//	@Success		200	{array}		store.Institution
//	@Failure		500	{object}	error
//	@Router			/institutions [get]
func (app *application) listInstitutionsHandler(w http.ResponseWriter, r *http.Request) {
	institutions, err := app.store.Institutions.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, institutions); err != nil {
		app.internalServerError(w, r, err)
	}
}
