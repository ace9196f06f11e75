// Package htmlmin wraps the tdewolff minifier for rendered output.
package htmlmin

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	m    *minify.M
	once sync.Once
)

func minifier() *minify.M {
	once.Do(func() {
		m = minify.New()
		m.AddFunc("text/html", html.Minify)
	})
	return m
}

// Minify shrinks rendered HTML. Input that fails to minify is returned
// unchanged; text without markup just gets its whitespace collapsed.
func Minify(content string) string {
	if strings.Contains(content, "<") {
		out, err := minifier().String("text/html", content)
		if err != nil {
			return content
		}
		return out
	}
	return strings.Join(strings.Fields(content), " ")
}
