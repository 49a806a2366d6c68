package itemlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPreservesOrderAndDuplicates(t *testing.T) {
	assert.Equal(t, "milk,bread,milk", Join([]string{"milk", "bread", "milk"}))
	assert.Equal(t, "", Join(nil))
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name   string
		stored string
		want   []string
	}{
		{name: "empty", stored: "", want: []string{}},
		{name: "blank", stored: "   ", want: []string{}},
		{name: "single", stored: "milk", want: []string{"milk"}},
		{name: "trims", stored: " milk , bread ", want: []string{"milk", "bread"}},
		{name: "drops empty segments", stored: "milk,,bread,", want: []string{"milk", "bread"}},
		{name: "keeps duplicates", stored: "eggs,eggs", want: []string{"eggs", "eggs"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Split(tc.stored))
		})
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	items := []string{"Apple Juice", "bread", "Apple Juice"}
	assert.Equal(t, items, Split(Join(items)))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("milk"))
	assert.True(t, Valid("whole milk"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("  "))
	assert.False(t, Valid(" milk"))
	assert.False(t, Valid("milk,bread"))
}
