package main

import (
	"errors"
	"net/http"

	"github.com/newslyhq/newsly/internal/data"
	"github.com/newslyhq/newsly/internal/validator"
)

// subscribeNewsletterHandler registers a newsletter subscriber and sends the
// confirmation email in the background.
func (app *application) subscribeNewsletterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	err := app.decodeJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, tokenHash, err := data.GenerateToken()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	subscriber := &data.Subscriber{
		Email:     input.Email,
		Status:    data.SubscriberPending,
		TokenHash: tokenHash,
	}
	v := validator.New()
	if data.ValidateSubscriber(v, subscriber); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Subscribers.Insert(subscriber)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "is already subscribed")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.background(func() {
		emailData := map[string]string{
			"confirmationToken": token,
		}
		err := app.mailer.Send(subscriber.Email, "subscriber_confirmation.tmpl", emailData)
		if err != nil {
			app.logger.PrintError(err, map[string]string{"email": subscriber.Email})
		}
	})

	err = app.encodeJSON(w, http.StatusAccepted, envelope{"subscriber": subscriber}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// confirmNewsletterHandler activates a subscription using the token from the
// confirmation email.
func (app *application) confirmNewsletterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	err := app.decodeJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	v := validator.New()
	if data.ValidateTokenPlaintext(v, input.Token); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	subscriber, err := app.models.Subscribers.ConfirmByToken(data.HashToken(input.Token))
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.encodeJSON(w, http.StatusOK, envelope{"subscriber": subscriber}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// unsubscribeNewsletterHandler removes a subscription using its token.
func (app *application) unsubscribeNewsletterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token string `json:"token"`
	}
	err := app.decodeJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	v := validator.New()
	if data.ValidateTokenPlaintext(v, input.Token); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Subscribers.DeleteByToken(data.HashToken(input.Token))
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}
	err = app.encodeJSON(w, http.StatusOK, envelope{"message": "subscription removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
