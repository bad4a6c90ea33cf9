package urlutil

import (
	"testing"

	spidertesting "github.com/spider-crawler/spider/internal/testing"
)

func TestHashIsStableAndDistinguishesURLs(t *testing.T) {
	a := Hash("https://example.com/")
	b := Hash("https://example.com/")
	c := Hash("https://example.com/other")

	spidertesting.Assert(t, a).Named("stable across calls").Equals(b)
	spidertesting.Assert(t, a).Named("differs for different input").NotEquals(c)
}
