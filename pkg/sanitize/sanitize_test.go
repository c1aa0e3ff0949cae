package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%abc%", LikePattern("abc"))
	assert.Equal(t, `%50\%\_off\\%`, LikePattern(`50%_off\`))
}

func TestOptionalAndPhone(t *testing.T) {
	blank := "   "
	val := " 0912 "
	assert.Nil(t, Optional(nil))
	assert.Nil(t, Optional(&blank))
	assert.Equal(t, "0912", *Optional(&val))

	assert.Equal(t, "", Phone(nil))
	assert.Equal(t, "", Phone(&blank))
	assert.Equal(t, "0912", Phone(&val))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "court-filings-2024", Slug("  Court Filings / 2024 "))
	assert.Equal(t, "起訴狀", Slug("起訴狀"))
	assert.Equal(t, "", Slug("///"))
}
