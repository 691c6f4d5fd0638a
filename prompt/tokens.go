package prompt

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const encodingName = "cl100k_base"

func init() {
	// Ranks are embedded so counts, and the prompts built from them, are the
	// same with or without network access.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter measures text in model tokens. If the encoding cannot be built it
// estimates instead.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		if enc, err := tiktoken.GetEncoding(encodingName); err == nil {
			c.enc = enc
		}
	})
	return c.enc
}

// Count returns the token length of s.
func (c *Counter) Count(s string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(s, nil, nil))
	}
	return estimate(s)
}

// estimate charges four ASCII bytes or one other rune per token.
func estimate(s string) int {
	ascii, other := 0, 0
	for _, r := range s {
		if r < utf8.RuneSelf {
			ascii++
		} else {
			other++
		}
	}
	return (ascii+3)/4 + other
}

const ellipsis = "…"

// Truncate cuts s to the longest rune prefix that fits in budget tokens and
// marks the cut with an ellipsis. s is returned unchanged when it fits.
func (c *Counter) Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if c.Count(s) <= budget {
		return s
	}
	runes := []rune(s)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.Count(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo]) + ellipsis
}
