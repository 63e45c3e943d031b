package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrap(ErrNotFound, "webhook %s", "wh_1")
	assert.EqualError(t, err, "webhook wh_1: not found")
	assert.True(t, Is(err, ErrNotFound))
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(nil) })
	assert.Panics(t, func() { Must(ErrInvalidInput) })
}
