/*
Package dsl provides a Go DSL for programmatically constructing action trees.

It is an alternative to YAML tree files, useful for tests, embedded setups and trees
generated at runtime.

Example usage:

	b := dsl.New()

	b.Root(10, "require-contact").
		Child(11, "tag").Option("tags", []string{"spring"}).Up().
		Child(12, "redirect").Option("url", "https://example.com/welcome")

	// The resulting loader implements ports.TreeLoader.
	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	// ... pass loader to arbor.New(arbor.WithLoader(loader))
*/
package dsl
