// Package tokens counts tokens in skill content.
package tokens

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const charsPerToken = 4

// Tokenizer names a counting strategy.
type Tokenizer string

const (
	TokenizerEstimate Tokenizer = "estimate"
	TokenizerTiktoken Tokenizer = "tiktoken"

	// DefaultEncoding is used when no encoding is given for the tiktoken counter.
	DefaultEncoding = "cl100k_base"
)

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// NewCounter returns a Counter for the given tokenizer.
func NewCounter(t Tokenizer) (Counter, error) {
	switch t {
	case TokenizerEstimate, "":
		return NewEstimatingCounter(), nil
	case TokenizerTiktoken:
		return NewTiktokenCounter(DefaultEncoding), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", t)
	}
}

// EstimatingCounter approximates token count as ~4 characters per token.
type EstimatingCounter struct{}

func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{}
}

func (*EstimatingCounter) Count(text string) int {
	return Estimate(text)
}

func Estimate(text string) int {
	return int(math.Ceil(float64(len(text)) / float64(charsPerToken)))
}

// TiktokenCounter counts with a BPE encoding. The encoding is loaded on first
// use; if it cannot be loaded the counter falls back to Estimate.
type TiktokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.err = fmt.Errorf("loading tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.err
}

// Err reports why the encoding could not be loaded, if it could not.
func (c *TiktokenCounter) Err() error {
	return c.init()
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := c.init(); err != nil {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
