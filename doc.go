/*
Package arbor runs hierarchical action trees against visitor contacts.

An action tree is a tree of typed nodes. Each node type is an action.Type looked up in a
registry by its tag. The interpreter evaluates a node, and when it succeeds, its children
from left to right, threading the contact and a shared property bag through the run. A
Forbidden child or a Success carrying a redirect stops its siblings.

Runs are usually started from an action link: a compact, checksum-protected token naming an
action, an optional contact and an optional custom uri (see package link).

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/action"
		"github.com/aretw0/arbor/pkg/adapters/memory"
		"github.com/aretw0/arbor/pkg/dsl"
	)

	func main() {
		b := dsl.New()
		b.Root(10, "set-property").Option("key", "campaign").Option("value", "spring").
			Child(11, "redirect").Option("url", "https://example.com/welcome")

		loader, err := b.Build()
		if err != nil {
			log.Fatal(err)
		}

		eng := arbor.New(
			arbor.WithLoader(loader),
			arbor.WithCapabilities(&action.Capabilities{
				Contacts: memory.NewStore(),
				Events:   memory.NewEventStore(),
			}),
		)

		res, err := eng.Trigger(context.Background(), 10)
		if err != nil {
			log.Fatal(err)
		}
		log.Println(res.Status, res.Redirect)
	}
*/
package arbor
