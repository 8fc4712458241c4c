package intake_test

import (
	"fmt"
	"testing"

	"homecare/internal/intake"
	"homecare/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("Should resolve every category to its own rule", func(t *testing.T) {
		for _, category := range types.Categories() {
			rule, err := intake.Resolve(int(category))
			require.NoError(t, err)
			assert.Equal(t, category, rule.Category)
			assert.NotNil(t, rule.Spec)
			assert.NotNil(t, rule.Map)
			assert.NotNil(t, rule.Price)
		}
	})
	t.Run("Should reject ids outside the registry", func(t *testing.T) {
		for _, id := range []int{0, 9, 100} {
			_, err := intake.Resolve(id)
			var unsupported *intake.UnsupportedCategoryError
			require.ErrorAs(t, err, &unsupported)
			assert.EqualError(t, err, fmt.Sprintf("unsupported category %d", id))
		}
	})
}
