package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/ephyspipe/internal/processing"
	"github.com/RMahshie/ephyspipe/internal/render"
	"github.com/RMahshie/ephyspipe/internal/repository"
	"github.com/RMahshie/ephyspipe/internal/spectral"
)

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	var (
		missing *processing.MissingInputError
		empty   *render.EmptyChannelSetError
		invalid *spectral.InvalidParameterError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &empty), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// httpError converts err into a huma error with the mapped status
func httpError(msg string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		return huma.Error500InternalServerError(msg, err)
	}
	return huma.NewError(status, msg+": "+err.Error(), err)
}

// writeError answers a plain HTTP handler with the mapped status
func writeError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(msg)
		http.Error(w, msg, status)
		return
	}
	http.Error(w, msg+": "+err.Error(), status)
}
