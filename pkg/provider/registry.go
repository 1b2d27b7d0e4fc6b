package provider

import (
	"net/http"
	"sort"
)

// Registry holds the text providers available to the idea adapter.
type Registry struct {
	text map[string]TextProvider
}

// NewRegistry registers every built-in text provider. baseURLs optionally
// overrides the endpoint per provider name.
func NewRegistry(httpClient *http.Client, baseURLs map[string]string) *Registry {
	opts := func(name string) []Option {
		o := []Option{WithHTTPClient(httpClient)}
		if url := baseURLs[name]; url != "" {
			o = append(o, WithBaseURL(url))
		}
		return o
	}

	r := &Registry{text: make(map[string]TextProvider)}
	r.Register(NewOpenAI(opts("openai")...))
	r.Register(NewAnthropic(opts("anthropic")...))
	r.Register(NewGoogle(opts("google")...))
	r.Register(NewDeepSeek(opts("deepseek")...))
	r.Register(NewMock())
	return r
}

// Register adds or replaces a text provider.
func (r *Registry) Register(p TextProvider) {
	r.text[p.Name()] = p
}

// Text returns a text provider by name.
func (r *Registry) Text(name string) (TextProvider, bool) {
	p, ok := r.text[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.text))
	for name := range r.text {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
