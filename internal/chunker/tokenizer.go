package chunker

import "github.com/pkoukk/tiktoken-go"

// tokenEncoder counts and splits tokens using a BPE encoding, default
// cl100k_base.
type tokenEncoder struct {
	enc *tiktoken.Tiktoken
}

func newTokenEncoder(encoding string) (*tokenEncoder, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &tokenEncoder{enc: enc}, nil
}

func (t *tokenEncoder) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tokenEncoder) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tokenEncoder) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
