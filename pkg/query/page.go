package query

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/redbco/redb-cql/pkg/adapter"
)

// PageSizes are the page sizes offered to users.
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize is used when no size was chosen.
const DefaultPageSize = 50

// ClampPageSize maps n to the smallest allowed size >= n, the largest allowed
// size when n exceeds it, and DefaultPageSize when n <= 0.
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	for _, size := range PageSizes {
		if n <= size {
			return size
		}
	}
	return PageSizes[len(PageSizes)-1]
}

// PageState carries the continuation token of a paged read.
// An empty Token means the first page.
type PageState struct {
	Token    []byte
	PageSize int
}

// FirstPage returns a page state for the first page of the given size.
func FirstPage(size int) *PageState {
	return &PageState{PageSize: ClampPageSize(size)}
}

// Next returns the state for the page after a result with the given token.
// It returns nil when token is empty, meaning there is no next page.
func (p *PageState) Next(token []byte) *PageState {
	if len(token) == 0 {
		return nil
	}
	return &PageState{Token: append([]byte(nil), token...), PageSize: p.Size()}
}

// Size returns the clamped page size.
func (p *PageState) Size() int {
	if p == nil {
		return DefaultPageSize
	}
	return ClampPageSize(p.PageSize)
}

// IsFirst reports whether this state starts from the beginning.
func (p *PageState) IsFirst() bool {
	return p == nil || len(p.Token) == 0
}

// Encode renders the state as an opaque URL-safe string "<size>:<token>".
func (p *PageState) Encode() string {
	if p == nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%d:%s", p.Size(), p.Token)))
}

// DecodePageState parses a string produced by Encode. An empty string is the
// first page at the default size.
func DecodePageState(s string) (*PageState, error) {
	if s == "" {
		return FirstPage(DefaultPageSize), nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", adapter.ErrInvalidPageState, err)
	}
	sizeText, token, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, fmt.Errorf("%w: missing page size", adapter.ErrInvalidPageState)
	}
	size, err := strconv.Atoi(sizeText)
	if err != nil || size <= 0 {
		return nil, fmt.Errorf("%w: bad page size %q", adapter.ErrInvalidPageState, sizeText)
	}
	p := &PageState{PageSize: ClampPageSize(size)}
	if token != "" {
		p.Token = []byte(token)
	}
	return p, nil
}
