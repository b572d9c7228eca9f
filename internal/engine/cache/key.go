package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ErrEmptyOperation is returned when key params name no operation.
var ErrEmptyOperation = errors.New("cache key operation cannot be empty")

// KeyParams identifies one cacheable request.
type KeyParams struct {
	// Operation names the request kind, e.g. "characters" or "locations".
	Operation string

	// Filters holds request parameters. Values are case-sensitive because
	// origin and location matching is exact.
	Filters map[string]string

	// Page is the requested page (0 when the request covers every page).
	Page int
}

// keyDocument is the canonical form hashed into a key.
type keyDocument struct {
	Operation string      `json:"op"`
	Filters   [][2]string `json:"filters,omitempty"`
	Page      int         `json:"page,omitempty"`
}

// GenerateKey returns a deterministic SHA256 hex key for params. The
// operation is case-folded and trimmed; filters are sorted by name and empty
// values dropped so that equivalent requests share a key.
func GenerateKey(params KeyParams) (string, error) {
	op := strings.ToLower(strings.TrimSpace(params.Operation))
	if op == "" {
		return "", ErrEmptyOperation
	}

	doc := keyDocument{Operation: op, Page: params.Page}

	names := make([]string, 0, len(params.Filters))
	for name, value := range params.Filters {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Filters = append(doc.Filters, [2]string{name, params.Filters[name]})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// KeyParamsBuilder assembles KeyParams fluently.
type KeyParamsBuilder struct {
	params KeyParams
}

// NewKeyParamsBuilder starts a builder for the given operation.
func NewKeyParamsBuilder(operation string) *KeyParamsBuilder {
	return &KeyParamsBuilder{params: KeyParams{
		Operation: operation,
		Filters:   make(map[string]string),
	}}
}

// WithFilter adds one request parameter.
func (b *KeyParamsBuilder) WithFilter(name, value string) *KeyParamsBuilder {
	b.params.Filters[name] = value
	return b
}

// WithPage sets the page number.
func (b *KeyParamsBuilder) WithPage(page int) *KeyParamsBuilder {
	b.params.Page = page
	return b
}

// Build returns the key for the assembled params.
func (b *KeyParamsBuilder) Build() (string, error) {
	return GenerateKey(b.params)
}
