package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCode(t *testing.T) {
	assert.Equal(t, 2001000, MakeCode(ServiceRAG, CategoryRequest, 0))
	assert.Equal(t, 1001, MakeCode(ServiceCommon, CategoryRequest, 1))
	assert.Equal(t, 2010001, MakeCode(ServiceRAG, CategoryNetwork, 1))
}

func TestErrnoError(t *testing.T) {
	err := ErrRetrieval
	assert.Contains(t, err.Error(), "Retrieval failed")
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", err.Code))
}

func TestWithCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrEmbedding.WithCause(cause)

	// Original is untouched.
	assert.Nil(t, ErrEmbedding.Unwrap())
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, stderrors.Is(err, ErrEmbedding))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithMessage(t *testing.T) {
	err := ErrInvalidParam.WithMessage("query cannot be empty")
	assert.Equal(t, "query cannot be empty", err.Message)
	assert.Equal(t, ErrInvalidParam.Code, err.Code)
	assert.Equal(t, "Invalid parameter", ErrInvalidParam.Message)
}

func TestWithMessagef(t *testing.T) {
	err := ErrUnsupportedMedia.WithMessagef("unsupported file type: %s", ".exe")
	assert.Equal(t, "unsupported file type: .exe", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrBadRequest.HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, ErrGeneration.HTTPStatus())

	// Zero HTTP status falls back to 500.
	e := &Errno{Code: 9999999, Message: "no status"}
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatus())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	e := FromError(ErrCache)
	assert.Same(t, ErrCache, e)

	plain := stderrors.New("boom")
	wrapped := FromError(plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.Equal(t, plain, wrapped.Unwrap())
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(ErrRetrieval, ErrRetrieval.Code))
	assert.True(t, IsCode(ErrRetrieval.WithCause(stderrors.New("x")), ErrRetrieval.Code))
	assert.False(t, IsCode(stderrors.New("x"), ErrRetrieval.Code))
	assert.Equal(t, -1, GetCode(stderrors.New("x")))
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(ErrIndexing.Code)
	require.True(t, ok)
	assert.Same(t, ErrIndexing, e)

	_, ok = Lookup(8888888)
	assert.False(t, ok)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(&Errno{Code: ErrInternal.Code, Message: "dup"})
	})
}
