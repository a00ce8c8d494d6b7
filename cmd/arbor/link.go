package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arbor/pkg/link"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Encode, decode and rewrite action links",
}

var linkEncodeCmd = &cobra.Command{
	Use:   "encode <actionId>",
	Short: "Print the link of an action, optionally personalized for a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actionID, err := parseActionID(args[0])
		if err != nil {
			return err
		}
		contactID, _ := cmd.Flags().GetInt32("contact-id")
		uri, _ := cmd.Flags().GetString("uri")
		absolute, _ := cmd.Flags().GetBool("absolute")

		l := link.Link{ActionID: actionID, ContactID: contactID, CustomURI: uri}
		fmt.Fprintln(cmd.OutOrStdout(), codecFromFlags(cmd).CreateLink(l, absolute))
		return nil
	},
}

var linkDecodeCmd = &cobra.Command{
	Use:   "decode <link>",
	Short: "Verify a link and print its fields as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := codecFromFlags(cmd).DecodeLink(args[0])
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(l)
	},
}

var linkRewriteCmd = &cobra.Command{
	Use:   "rewrite [file]",
	Short: "Personalize every action link in a text for one contact",
	Long:  `Reads the text from the file, or from stdin when no file is given, and prints it with re-encoded links.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contactID, _ := cmd.Flags().GetInt32("contact-id")

		var (
			text []byte
			err  error
		)
		if len(args) == 1 {
			text, err = os.ReadFile(args[0])
		} else {
			text, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		out := codecFromFlags(cmd).ReplaceLinks(string(text), func(l *link.Link) {
			l.ContactID = contactID
		})
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

func codecFromFlags(cmd *cobra.Command) *link.Codec {
	baseURL, _ := cmd.Flags().GetString("base-url")
	return link.NewCodec(link.WithBaseURL(baseURL))
}

func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.AddCommand(linkEncodeCmd, linkDecodeCmd, linkRewriteCmd)

	linkEncodeCmd.Flags().Int32("contact-id", 0, "Contact the link is personalized for")
	linkEncodeCmd.Flags().String("uri", "", "Custom uri fragment carried by the link")
	linkEncodeCmd.Flags().Bool("absolute", false, "Render an absolute URL using --base-url")

	linkRewriteCmd.Flags().Int32("contact-id", 0, "Contact the links are personalized for")
}
