package actions

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// decodeOptions decodes a node's opaque options payload into a typed struct.
// Weak typing accepts the scalar variants YAML and JSON produce (e.g. "1" for 1).
func decodeOptions(node *domain.ActionNode, out any) error {
	if len(node.Options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(node.Options); err != nil {
		return fmt.Errorf("invalid options for node %d (%s): %w", node.ID, node.Type, err)
	}
	return nil
}
