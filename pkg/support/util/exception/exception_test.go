package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

func TestNewProviderError(t *testing.T) {
	originalErr := errors.New("db connection refused")
	pe := exception.NewProviderError("source", "failed to connect", exception.KindAcquisition, originalErr)

	assert.Equal(t, "source", pe.Module)
	assert.Equal(t, "failed to connect", pe.Message)
	assert.Equal(t, exception.KindAcquisition, pe.Kind)
	assert.Equal(t, originalErr, pe.Unwrap())
	assert.Contains(t, pe.Error(), "[source] failed to connect: db connection refused")
	assert.NotEmpty(t, pe.StackTrace)
}

func TestNewProviderErrorf(t *testing.T) {
	// Only message args.
	pe1 := exception.NewProviderErrorf("lookup", exception.KindConfiguration, "no binding under name '%s'", "main")
	assert.Nil(t, pe1.Unwrap())
	assert.Contains(t, pe1.Error(), "[lookup] no binding under name 'main'")

	// A trailing error argument is extracted and wrapped.
	wrapped := errors.New("socket closed")
	pe2 := exception.NewProviderErrorf("source", exception.KindAcquisition, "failed to open pool for '%s'", "main", wrapped)
	assert.Equal(t, wrapped, pe2.Unwrap())
	assert.Contains(t, pe2.Error(), "[source] failed to open pool for 'main': socket closed")
}

func TestErrorWithoutOriginal(t *testing.T) {
	pe := exception.NewProviderError("provider", "provider is closed", exception.KindIllegalState, nil)
	assert.Equal(t, "[provider] provider is closed", pe.Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "configuration", exception.KindConfiguration.String())
	assert.Equal(t, "illegal_state", exception.KindIllegalState.String())
	assert.Equal(t, "acquisition", exception.KindAcquisition.String())
	assert.Equal(t, "release", exception.KindRelease.String())
	assert.Equal(t, "unsupported_unwrap", exception.KindUnsupportedUnwrap.String())
	assert.Equal(t, "unknown", exception.Kind(99).String())
}

func TestKindPredicates(t *testing.T) {
	cfg := exception.NewProviderError("provider", "no source", exception.KindConfiguration, nil)
	assert.True(t, exception.IsConfiguration(cfg))
	assert.False(t, exception.IsIllegalState(cfg))
	assert.False(t, exception.IsAcquisition(cfg))

	state := exception.NewProviderError("provider", "closed", exception.KindIllegalState, nil)
	assert.True(t, exception.IsIllegalState(state))

	assert.False(t, exception.IsConfiguration(errors.New("plain error")))
	assert.False(t, exception.IsConfiguration(nil))
}

func TestKindPredicatesThroughWrapping(t *testing.T) {
	inner := exception.NewProviderError("lookup", "no binding", exception.KindConfiguration, nil)
	outer := fmt.Errorf("configuring provider: %w", inner)
	assert.True(t, exception.IsConfiguration(outer))
}

func TestErrorsAsExtractsProviderError(t *testing.T) {
	pe := exception.NewProviderError("source", "pool gone", exception.KindRelease, errors.New("closed"))
	wrapped := fmt.Errorf("releasing: %w", pe)

	var extracted *exception.ProviderError
	assert.True(t, errors.As(wrapped, &extracted))
	assert.Equal(t, exception.KindRelease, extracted.Kind)
	assert.Equal(t, "source", extracted.Module)
}
