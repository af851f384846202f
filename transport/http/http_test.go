package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterCleanup(t *testing.T) {
	t.Run("runs registered functions in order", func(t *testing.T) {
		h := &HTTP{}

		var ran []string
		h.RegisterCleanup(func() { ran = append(ran, "dispatcher") })
		h.RegisterCleanup(func() { ran = append(ran, "cache") })

		h.runCleanups()

		assert.Equal(t, []string{"dispatcher", "cache"}, ran)
	})

	t.Run("no registered functions is a no-op", func(t *testing.T) {
		h := &HTTP{}

		assert.NotPanics(t, h.runCleanups)
	})
}
