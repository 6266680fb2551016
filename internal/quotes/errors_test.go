package quotes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapStore(t *testing.T) {
	assert.NoError(t, WrapStore("save", nil))
	assert.ErrorIs(t, WrapStore("get", ErrNotFound), ErrNotFound)

	cause := errors.New("connection refused")
	err := WrapStore("quotes.save", cause)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "quotes.save", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STORE_QUOTES_SAVE", se.Code())
}

func TestSavedQuoteCategoryName(t *testing.T) {
	cat := "Повседневное"
	assert.Equal(t, cat, SavedQuote{Category: &cat}.CategoryName())
	assert.Equal(t, "", SavedQuote{}.CategoryName())
}
