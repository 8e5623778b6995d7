package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"sentifeedback/internal/mailer"
	"sentifeedback/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

// ErrorBadRequestResponse represents the standard error format for bad request API responses.
//
//	@name			ErrorBadRequestResponse
//	@description	Standard error response format returned by all bad request API endpoints
type ErrorBadRequestResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"It show error from err.Error()"`
	Status  int    `json:"status" example:"400"`
}

// ErrorInternalServerResponse represents the standard error format for internal server API responses.
//
//	@name			ErrorInternalServerResponse
//	@description	Standard error response format returned by all internal server error API endpoints
type ErrorInternalServerResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"the server encountered a problem"`
	Status  int    `json:"status" example:"500"`
}

// errInvalidCredentials is the single answer to every login failure. Whether
// the username, password, role, or institution mismatched is deliberately not
// distinguishable from the outside.
var errInvalidCredentials = errors.New("invalid credentials")

type RegisterAccountPayload struct {
	Username      string `json:"username" validate:"required,min=3,max=50"`
	Password      string `json:"password" validate:"required,min=3,max=72"`
	FullName      string `json:"full_name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=255"`
	MobileNumber  string `json:"mobile_number" validate:"required,mobile"`
	InstitutionID int64  `json:"institution_id" validate:"required"`
	Role          string `json:"role" validate:"required,oneof=student admin"`
}

// registerHandler godoc
//
//	@Summary		Registers an account
//	@Description	Creates a student or admin account scoped to an institution
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterAccountPayload		true	"Account details"
//	@Success		201		{object}	store.Account				"Account registered"
//	@Failure		400		{object}	ErrorBadRequestResponse		"Bad request"
//	@Failure		500		{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Router			/auth/register [post]
func (app *application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterAccountPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	institution, err := app.store.Institutions.GetByID(ctx, payload.InstitutionID)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.badRequestResponse(w, r, errors.New("unknown institution"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	account := &store.Account{
		Username:      payload.Username,
		FullName:      payload.FullName,
		Email:         payload.Email,
		MobileNumber:  payload.MobileNumber,
		InstitutionID: institution.ID,
		Role:          payload.Role,
	}
	if err := account.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Accounts.Create(ctx, account); err != nil {
		switch err {
		case store.ErrDuplicateUsername:
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	account.InstitutionName = institution.Name
	account.InstitutionKind = institution.Kind

	if err := app.jsonResponse(w, http.StatusCreated, account); err != nil {
		app.internalServerError(w, r, err)
	}
}

type LoginPayload struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=student admin"`
	InstitutionKind string `json:"institution_kind" validate:"required,oneof=school college"`
	InstitutionID   int64  `json:"institution_id"` // 0 matches any institution
}

// TokenResponse represents the structure of the tokens in the response. made for swagger doc success output
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
	Role         string `json:"role"`
}

// Envelope is a wrapper for API responses.made for swagger doc success output
type Envelope struct {
	Data TokenResponse `json:"data"`
}

// LoginResponse is the token pair plus the account the portal renders after
// login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	AccountID    string         `json:"account_id"`
	Role         string         `json:"role"`
	Account      *store.Account `json:"account"`
}

// LoginEnvelope is the enveloped LoginResponse. made for swagger doc success output
type LoginEnvelope struct {
	Data LoginResponse `json:"data"`
}

// loginHandler godoc
//
//	@Summary		Login to get tokens
//	@Description	Exact match on username, password, role, institution kind, and institution id (0 matches any). All failures look identical.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload	true	"Credentials"
//	@Success		200		{object}	LoginEnvelope	"Access and refresh tokens plus the account"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	account, err := app.store.Accounts.GetByUsername(r.Context(), payload.Username)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.unauthorizedErrorResponse(w, r, errInvalidCredentials)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := account.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, errInvalidCredentials)
		return
	}

	if account.Role != payload.Role ||
		account.InstitutionKind != payload.InstitutionKind ||
		(payload.InstitutionID != 0 && account.InstitutionID != payload.InstitutionID) {
		app.unauthorizedErrorResponse(w, r, errInvalidCredentials)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(account.ID, account.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Accounts.SaveRefreshToken(r.Context(), account.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccountID:    strconv.FormatInt(account.ID, 10),
		Role:         account.Role,
		Account:      account,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh authentication tokens
//	@Description	Validates the provided refresh token and issues new access and refresh tokens.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshPayload	true	"Refresh token payload"
//	@Success		200		{object}	Envelope		"New access and refresh tokens"
//	@Failure		400		{object}	error			"Bad request"
//	@Failure		401		{object}	error			"Unauthorized"
//	@Failure		500		{object}	error			"Internal server error"
//	@Router			/auth/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil || !token.Valid {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token"))
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid claims"))
		return
	}

	subClaim, ok := claims["sub"].(float64)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid sub claim"))
		return
	}

	accountID := int64(subClaim)

	savedToken, err := app.store.Accounts.GetRefreshToken(r.Context(), accountID)
	if err != nil || savedToken != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token mismatch"))
		return
	}

	account, err := app.store.Accounts.GetByID(r.Context(), accountID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, newRefreshToken, err := app.authenticator.GenerateTokens(account.ID, account.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Accounts.SaveRefreshToken(r.Context(), account.ID, newRefreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"access_token":  accessToken,
		"refresh_token": newRefreshToken,
		"account_id":    strconv.FormatInt(account.ID, 10),
		"role":          account.Role,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Clears the stored refresh token for the current account
//	@Tags			authentication
//	@Produce		json
//	@Success		204	{string}	string	"No Content"
//	@Failure		500	{object}	error	"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	account := getAccountFromContext(r)

	if err := app.store.Accounts.DeleteRefreshToken(r.Context(), account.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ForgotPasswordPayload struct {
	Username     string `json:"username" validate:"required"`
	MobileNumber string `json:"mobile_number" validate:"required,mobile"`
}

// errInvalidAccountDetails covers both "no such username" and "mobile number
// mismatch", same anti-enumeration stance as login.
var errInvalidAccountDetails = errors.New("invalid account details")

// forgotPasswordHandler godoc
//
//	@Summary		Request a password reset code
//	@Description	Matches username and mobile number, then emails a 6-digit reset code
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ForgotPasswordPayload	true	"Account details"
//	@Success		200		{object}	map[string]string		"Reset code sent"
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Router			/auth/forgot-password [post]
func (app *application) forgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ForgotPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	account, err := app.store.Accounts.GetByUsername(ctx, payload.Username)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.badRequestResponse(w, r, errInvalidAccountDetails)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if account.MobileNumber != payload.MobileNumber {
		app.badRequestResponse(w, r, errInvalidAccountDetails)
		return
	}

	code, err := generateResetCode()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	expires := time.Now().UTC().Add(app.config.mail.codeExp)
	if err := app.store.Accounts.SetResetCode(ctx, account.ID, hashResetCode(code), expires); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	vars := struct {
		Username  string
		Code      string
		ExpiresIn string
	}{
		Username:  account.FullName,
		Code:      code,
		ExpiresIn: app.config.mail.codeExp.String(),
	}

	status, err := app.mailer.Send(mailer.ResetCodeTemplate, account.Username, account.Email, vars)
	if err != nil {
		app.logger.Errorw("error sending reset code email", "error", err)
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("reset code email sent", "status code", status)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "reset code sent"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type VerifyResetCodePayload struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// verifyResetCodeHandler godoc
//
//	@Summary		Verify a password reset code
//	@Description	Checks the emailed 6-digit code against the issued one
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		VerifyResetCodePayload	true	"Username and code"
//	@Success		200		{object}	map[string]string		"Code verified"
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Router			/auth/verify-reset-code [post]
func (app *application) verifyResetCodeHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyResetCodePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	account, err := app.store.Accounts.GetByUsername(ctx, payload.Username)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.badRequestResponse(w, r, errors.New("invalid or expired code"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if account.ResetCodeHash == "" ||
		account.ResetCodeHash != hashResetCode(payload.Code) ||
		time.Now().UTC().After(account.ResetCodeExpires) {
		app.badRequestResponse(w, r, errors.New("invalid or expired code"))
		return
	}

	if err := app.store.Accounts.MarkResetVerified(ctx, account.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "code verified"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ResetPasswordPayload struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required,min=3,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// resetPasswordHandler godoc
//
//	@Summary		Set a new password
//	@Description	Requires a previously verified reset code for the account
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ResetPasswordPayload	true	"New password"
//	@Success		200		{object}	map[string]string		"Password reset successful"
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Router			/auth/reset-password [put]
func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	account, err := app.store.Accounts.GetByUsername(ctx, payload.Username)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			app.badRequestResponse(w, r, errors.New("no verified reset request"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// The state machine only reaches here through forgot-password and
	// verify-reset-code, in that order.
	if !account.ResetVerified || time.Now().UTC().After(account.ResetCodeExpires) {
		app.badRequestResponse(w, r, errors.New("no verified reset request"))
		return
	}

	if err := account.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Accounts.UpdatePassword(ctx, account.ID, account.Password.Hash()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Accounts.ClearReset(ctx, account.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset successful"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
