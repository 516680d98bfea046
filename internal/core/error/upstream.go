package errx

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// WrapAzure maps Azure SDK failures onto the status reported by the service.
func WrapAzure(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	var re *azcore.ResponseError
	if errors.As(err, &re) {
		if re.StatusCode == http.StatusNotFound {
			return New(err, http.StatusNotFound, NotFoundMessage)
		}
		if re.StatusCode >= 400 {
			return New(err, re.StatusCode, AzureErrorMessage)
		}
	}
	if st, ok := contextStatus(err); ok {
		return New(err, st, AzureErrorMessage)
	}
	return New(err, http.StatusInternalServerError, AzureErrorMessage)
}

// WrapGateway classifies a language model failure.
func WrapGateway(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	if st, ok := contextStatus(err); ok {
		msg := GatewayErrorMessage
		if st == http.StatusGatewayTimeout {
			msg = GatewayTimeoutMessage
		}
		return New(err, st, msg)
	}
	return New(err, http.StatusInternalServerError, GatewayErrorMessage)
}

func contextStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	case errors.Is(err, context.Canceled):
		return StatusClientClosed, true
	}
	return 0, false
}
