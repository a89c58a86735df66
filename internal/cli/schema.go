// Package cli holds helpers shared by the concierge and concierged
// command trees. Its one feature is --help-json: a machine-readable dump
// of a command, its flags, and its subcommands, used by the deploy
// tooling to validate invocations without running them.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagDoc describes one flag of a command.
type FlagDoc struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Default   string `json:"default,omitempty"`
	Usage     string `json:"usage,omitempty"`
	Required  bool   `json:"required"`
}

// CommandDoc describes a command and its visible subcommands.
type CommandDoc struct {
	Name        string       `json:"name"`
	Use         string       `json:"use,omitempty"`
	Short       string       `json:"short,omitempty"`
	Long        string       `json:"long,omitempty"`
	Flags       []FlagDoc    `json:"flags,omitempty"`
	Subcommands []CommandDoc `json:"subcommands,omitempty"`
}

// Describe builds the CommandDoc for a command tree. Hidden commands,
// the built-in help command, and the help/help-json flags themselves are
// left out.
func Describe(cmd *cobra.Command) CommandDoc {
	doc := CommandDoc{
		Name:  cmd.Name(),
		Use:   cmd.Use,
		Short: cmd.Short,
		Long:  cmd.Long,
	}

	required := false
	if cmd.Annotations != nil {
		_, required = cmd.Annotations[cobra.BashCompOneRequiredFlag]
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		doc.Flags = append(doc.Flags, FlagDoc{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Default:   f.DefValue,
			Usage:     f.Usage,
			Required:  required,
		})
	})

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		doc.Subcommands = append(doc.Subcommands, Describe(sub))
	}

	return doc
}

// AddHelpJSONFlag registers --help-json on a command tree.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command description as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints
// the doc for the addressed subcommand and exits. Must run before
// Execute so the dump works even when required args are missing.
func CheckHelpJSON(rootCmd *cobra.Command) {
	for i, arg := range os.Args {
		if arg != "--help-json" {
			continue
		}

		doc := Describe(resolveCommand(rootCmd, os.Args[1:i]))
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to describe command: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

// resolveCommand walks the path of subcommand names preceding
// --help-json. An unknown name stops the walk at the deepest match.
func resolveCommand(cmd *cobra.Command, path []string) *cobra.Command {
	if len(path) == 0 {
		return cmd
	}

	for _, sub := range cmd.Commands() {
		if sub.Name() == path[0] || sub.HasAlias(path[0]) {
			return resolveCommand(sub, path[1:])
		}
	}

	return cmd
}
