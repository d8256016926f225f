package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_WalksWrappedChain(t *testing.T) {
	inner := New(NoProviderFound, "no provider for action type %q", "nft-buy")
	outer := Wrap(ActionResolutionFailed, inner, "resolve action %d", 2)
	wrapped := fmt.Errorf("orchestrate: %w", outer)

	assert.True(t, Is(wrapped, ActionResolutionFailed))
	assert.True(t, Is(wrapped, NoProviderFound))
	assert.False(t, Is(wrapped, MalformedResponse))
	assert.Equal(t, ActionResolutionFailed, KindOf(wrapped))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Internal))
}

func TestError_MessageAndDetails(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(ClassificationUnavailable, cause, "llm call failed").WithDetail("provider", "openrouter")

	assert.Equal(t, "llm call failed: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "openrouter", got.Details["provider"])
}
