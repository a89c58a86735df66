package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandTree() *cobra.Command {
	root := &cobra.Command{Use: "concierged", Short: "Event concierge daemon"}

	serve := &cobra.Command{Use: "serve", Short: "Start the API server"}
	serve.Flags().StringP("port", "p", "8080", "Port to listen on")

	hidden := &cobra.Command{Use: "debug", Hidden: true}

	root.AddCommand(serve, hidden)
	AddHelpJSONFlag(root)
	return root
}

func TestDescribe(t *testing.T) {
	doc := Describe(commandTree())

	assert.Equal(t, "concierged", doc.Name)
	require.Len(t, doc.Subcommands, 1, "hidden commands stay out of the doc")

	serve := doc.Subcommands[0]
	assert.Equal(t, "serve", serve.Name)
	require.Len(t, serve.Flags, 1)
	assert.Equal(t, "port", serve.Flags[0].Name)
	assert.Equal(t, "p", serve.Flags[0].Shorthand)
	assert.Equal(t, "8080", serve.Flags[0].Default)
}

func TestDescribe_OmitsHelpFlags(t *testing.T) {
	root := commandTree()
	root.InitDefaultHelpFlag()

	doc := Describe(root)
	for _, f := range doc.Flags {
		assert.NotEqual(t, "help", f.Name)
		assert.NotEqual(t, "help-json", f.Name)
	}
}

func TestResolveCommand(t *testing.T) {
	root := commandTree()

	assert.Equal(t, "serve", resolveCommand(root, []string{"serve"}).Name())
	assert.Equal(t, "concierged", resolveCommand(root, nil).Name())

	t.Run("unknown name stops at deepest match", func(t *testing.T) {
		assert.Equal(t, "concierged", resolveCommand(root, []string{"bogus"}).Name())
	})
}
