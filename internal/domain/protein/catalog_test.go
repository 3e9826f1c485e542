package protein

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	usp7 := Preset{
		ID:          "5n9r",
		Name:        "USP7",
		Site:        BindingSite{Center: [3]float64{18.5, 5.2, -7.8}, Size: [3]float64{25, 25, 25}},
		KeyResidues: []int{219, 262, 275, 276, 277, 278},
	}
	c := NewCatalog(usp7, Preset{ID: "1ABC", Name: "Other"})

	got, err := c.Get("5N9R")
	require.NoError(t, err)
	assert.Equal(t, usp7, got)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrPresetNotFound)

	assert.Equal(t, []string{"1abc", "5n9r"}, c.IDs())
	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Other", list[0].Name)
}
