package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/action"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <actionId>",
	Short: "Trigger an action tree once",
	Long: `Runs the tree rooted at actionId as if its link had been followed,
persists contact changes and prints the result as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actionID, err := parseActionID(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		contactID, _ := flags.GetInt32("contact-id")
		email, _ := flags.GetString("email")
		socialID, _ := flags.GetString("social-id")
		anonID, _ := flags.GetString("anonymous-id")
		identity, _ := flags.GetString("identity")
		props, _ := flags.GetStringToString("prop")
		withGraph, _ := flags.GetBool("graph")

		overlay := &graph.GraphOverlay{Outcomes: make(map[int32]domain.Status)}
		trace := domain.LifecycleHooks{
			OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
				// The synthetic audit log leaves with the root id; keep the root's own outcome.
				if _, seen := overlay.Outcomes[e.NodeID]; seen {
					return
				}
				overlay.VisitedNodes = append(overlay.VisitedNodes, e.NodeID)
				overlay.Outcomes[e.NodeID] = e.Status
			},
		}

		a, err := newApp(cmd, trace)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []action.ContextOption{
			action.WithAnonymousID(anonID),
			action.WithIdentity(identity),
		}
		if c := contactFromFlags(contactID, email, socialID); c != nil {
			opts = append(opts, action.WithContact(c))
		}
		if len(props) > 0 {
			bag := make(map[string]any, len(props))
			for k, v := range props {
				bag[k] = v
			}
			opts = append(opts, action.WithProperties(bag))
		}

		res, err := a.engine.Trigger(cmd.Context(), actionID, opts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(httpAdapter.NewResultResponse(res)); err != nil {
			return err
		}

		if withGraph {
			root, err := a.loader.Load(cmd.Context(), actionID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, graph.GenerateMermaid(root, overlay))
		}
		return nil
	},
}

// contactFromFlags builds the transient contact the run starts with, or nil.
func contactFromFlags(id int32, email, socialID string) *domain.Contact {
	email = strings.TrimSpace(email)
	if id <= 0 && email == "" && socialID == "" {
		return nil
	}
	c := &domain.Contact{ID: id, SocialID: socialID}
	if email != "" {
		c.Email = &domain.EmailAddress{Address: email}
	}
	return c
}

func init() {
	rootCmd.AddCommand(runCmd)
	flags := runCmd.Flags()
	flags.Int32("contact-id", 0, "Id of the contact following the link")
	flags.String("email", "", "Email of a contact to resolve or create")
	flags.String("social-id", "", "Social id of a contact to resolve")
	flags.String("anonymous-id", "", "Anonymous visitor id")
	flags.String("identity", "", "Identity token of the caller")
	flags.StringToString("prop", nil, "Initial run properties (key=value)")
	flags.Bool("graph", false, "Print a Mermaid diagram of the visited nodes after the result")
}
