package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := New(base, http.StatusBadGateway, RedisErrorMessage)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "redis operation failed: boom", err.Error())

	var ae *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &ae))
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}

func TestWrapKeepsExistingClassification(t *testing.T) {
	inner := New(errors.New("gone"), http.StatusNotFound, NotFoundMessage)
	err := Wrap(inner, http.StatusInternalServerError, SystemErrorMessage)

	assert.Same(t, inner, err)
	assert.True(t, IsNotFound(err))
	assert.Nil(t, Wrap(nil, http.StatusInternalServerError, SystemErrorMessage))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("raw")))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}

func TestWrapRedis(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))
	assert.True(t, IsNotFound(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("io"))))
}

func TestWrapAzure(t *testing.T) {
	notFound := &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}
	assert.True(t, IsNotFound(WrapAzure(notFound)))

	forbidden := &azcore.ResponseError{StatusCode: http.StatusForbidden}
	assert.Equal(t, http.StatusForbidden, StatusOf(WrapAzure(forbidden)))

	assert.Equal(t, http.StatusInternalServerError, StatusOf(WrapAzure(errors.New("dial"))))
	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(WrapAzure(context.DeadlineExceeded)))
}

func TestWrapGateway(t *testing.T) {
	err := WrapGateway(fmt.Errorf("stream: %w", context.DeadlineExceeded))
	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusGatewayTimeout, ae.Status)
	assert.Equal(t, GatewayTimeoutMessage, ae.Message)

	assert.Equal(t, StatusClientClosed, StatusOf(WrapGateway(context.Canceled)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(WrapGateway(errors.New("quota"))))
}
