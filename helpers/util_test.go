package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"mon", "buy", "day"}, SplitList(" mon, buy,,day ", ","))
	assert.Empty(t, SplitList("", ","))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://www.ss.com/en/real-estate/", JoinURL("https://www.ss.com/", "/en/real-estate/"))
	assert.Equal(t, "https://www.ss.com", JoinURL("https://www.ss.com", ""))
}
