package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// maxHistoryTurns caps the rolling history sent with each exchange so a
// long session does not grow requests without bound.
const maxHistoryTurns = 20

// ChatTurn is one prior message in the rolling conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the chat API request.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history,omitempty"`
}

// ChatSource represents one source chunk behind an answer.
type ChatSource struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// ChatResponse represents the chat API response.
type ChatResponse struct {
	Answer  string       `json:"answer"`
	Route   string       `json:"route"`
	Sources []ChatSource `json:"sources,omitempty"`
}

// AskCmd creates the ask command. With a question argument it runs a
// single exchange; without one it opens an interactive session that
// carries the conversation history for the rest of the run.
func AskCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the event assistant a question",
		Long: "Sends a question to the assistant and prints the answer. " +
			"Without an argument, opens an interactive session that keeps the " +
			"conversation history between questions.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClient()
			if err != nil {
				return err
			}
			session := newAskSession(api)

			if len(args) == 1 {
				chat, err := session.exchange(args[0])
				if err != nil {
					return err
				}
				return printChat(os.Stdout, chat, showSources, outputJSON)
			}

			return runInteractive(session, os.Stdin, os.Stdout, showSources, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the source chunks behind the answer")

	return cmd
}

// askSession carries the rolling history across exchanges within one
// command run. Nothing is persisted between runs.
type askSession struct {
	api     *APIClient
	history []ChatTurn
}

func newAskSession(api *APIClient) *askSession {
	return &askSession{api: api}
}

// exchange posts the message together with the accumulated history, then
// folds both sides of the exchange back into it for the next question.
func (s *askSession) exchange(message string) (*ChatResponse, error) {
	resp, err := s.api.Post("/api/chat", ChatRequest{Message: message, History: s.history})
	if err != nil {
		return nil, err
	}

	var chat ChatResponse
	if err := json.Unmarshal(resp.Data, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}

	s.history = append(s.history,
		ChatTurn{Role: "user", Content: message},
		ChatTurn{Role: "assistant", Content: chat.Answer},
	)
	if len(s.history) > maxHistoryTurns {
		s.history = s.history[len(s.history)-maxHistoryTurns:]
	}

	return &chat, nil
}

// runInteractive reads questions line by line until EOF or a blank line.
// A failed exchange is reported and the session keeps going.
func runInteractive(session *askSession, in io.Reader, out io.Writer, showSources, outputJSON bool) error {
	fmt.Fprintln(out, "Interactive session. Blank line or Ctrl-D to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		chat, err := session.exchange(message)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := printChat(out, chat, showSources, outputJSON); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func printChat(out io.Writer, chat *ChatResponse, showSources, outputJSON bool) error {
	if outputJSON {
		return json.NewEncoder(out).Encode(chat)
	}

	fmt.Fprintln(out, chat.Answer)
	if showSources && len(chat.Sources) > 0 {
		fmt.Fprintln(out)
		for _, s := range chat.Sources {
			fmt.Fprintf(out, "  %s (%s, %.2f)\n", s.ID, s.Type, s.Score)
		}
	}

	return nil
}
