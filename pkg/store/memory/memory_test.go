package memory

import (
	"testing"

	"github.com/astromechza/ordered-todos/pkg/store"
	"github.com/astromechza/ordered-todos/pkg/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
