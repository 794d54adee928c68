package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder turns texts into vectors. Implementations must return one vector
// per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const DefaultDimensions = 384

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "of": {}, "what": {}, "to": {},
	"for": {}, "with": {}, "and": {}, "in": {}, "me": {}, "how": {}, "do": {},
	"i": {}, "are": {}, "by": {}, "on": {}, "please": {},
}

// HashEmbedder is a local feature-hashing embedder. Tokens, token bigrams and
// character trigrams are hashed into a fixed number of signed buckets and the
// result is L2-normalized, so equal texts always map to equal vectors.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dims)
	tokens := tokenize(text)

	for i, tok := range tokens {
		h.add(vec, "t:"+tok, 1.0)
		if i > 0 {
			h.add(vec, "b:"+tokens[i-1]+" "+tok, 0.5)
		}
		if len([]rune(tok)) > 3 {
			padded := []rune("^" + tok + "$")
			for j := 0; j+3 <= len(padded); j++ {
				h.add(vec, "c:"+string(padded[j:j+3]), 0.25)
			}
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// tokenize splits on whitespace and punctuation. Letter and digit runs become
// words; math symbols become single-rune tokens.
func tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		if _, stop := stopWords[w]; !stop {
			tokens = append(tokens, w)
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case strings.ContainsRune("+-*/=^!√π∫∑²°<>", r):
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}
