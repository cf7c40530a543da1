package knowledge

import _ "embed"

//go:embed knowledge.yaml
var defaultYAML []byte

// Default returns the built-in knowledge base that ships with Leafcheck.
func Default() *Base {
	b, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return b
}
