package enums

import "fmt"

// MediaContext groups assets by the surface they belong to.
type MediaContext string

const (
	MediaContextProduct  MediaContext = "product"
	MediaContextCategory MediaContext = "category"
	MediaContextBanner   MediaContext = "banner"
	MediaContextLookbook MediaContext = "lookbook"
	MediaContextBlog     MediaContext = "blog"
	MediaContextUser     MediaContext = "user"
	MediaContextSite     MediaContext = "site"
)

var validMediaContexts = []MediaContext{
	MediaContextProduct,
	MediaContextCategory,
	MediaContextBanner,
	MediaContextLookbook,
	MediaContextBlog,
	MediaContextUser,
	MediaContextSite,
}

// IsValid reports whether the value matches the canonical media context enum.
func (m MediaContext) IsValid() bool {
	for _, candidate := range validMediaContexts {
		if candidate == m {
			return true
		}
	}
	return false
}

func (m MediaContext) String() string {
	return string(m)
}

// ParseMediaContext converts the raw string to MediaContext.
func ParseMediaContext(value string) (MediaContext, error) {
	for _, candidate := range validMediaContexts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media context %q", value)
}

// MediaContexts returns the canonical ordering of contexts.
func MediaContexts() []MediaContext {
	out := make([]MediaContext, len(validMediaContexts))
	copy(out, validMediaContexts)
	return out
}
