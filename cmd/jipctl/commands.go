package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/task"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check jipanged server health",
	Long: `Check the health status of the jipanged server.

Examples:
  jipctl health
  jipctl health --server http://localhost:9000`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

var (
	askConversation string
	askContext      string
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant",
	Long: `Send a message to the assistant and print its reply.

Examples:
  jipctl ask "what should I focus on today?"
  jipctl ask --conversation conv_cli_1718000000 "and after that?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var extractSave bool

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract a task from text",
	Long: `Extract a structured task from a transcript read from a file or stdin.

Examples:
  echo "call the dentist tomorrow at 9" | jipctl extract
  jipctl extract --save notes.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the user's tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasks,
}

func init() {
	askCmd.Flags().StringVar(&askConversation, "conversation", "", "continue an existing conversation")
	askCmd.Flags().StringVar(&askContext, "context", "", "extra context for the assistant")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "store the extracted task")
}

func runHealth(cmd *cobra.Command, _ []string) error {
	var health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := call(cmd.Context(), http.MethodGet, "/health", nil, &health); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", health.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "Server URL: %s\n", serverURL)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	req := assistant.Request{
		Message:        strings.Join(args, " "),
		UserID:         userID,
		Context:        askContext,
		ConversationID: askConversation,
	}
	var resp assistant.Response
	if err := call(cmd.Context(), http.MethodPost, "/api/ai/ask", req, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Response)
	for _, s := range resp.Suggestions {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[jipctl] conversation %s\n", resp.ConversationID)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	transcript := strings.TrimSpace(string(content))
	if transcript == "" {
		return fmt.Errorf("no text to extract from")
	}

	var res pipeline.Result
	req := pipeline.TextRequest{Transcript: transcript, UserID: userID, Save: extractSave}
	if err := call(cmd.Context(), http.MethodPost, "/api/ai/extract", req, &res); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	var tasks []task.Task
	if err := call(cmd.Context(), http.MethodGet, "/api/tasks/"+url.PathEscape(userID), nil, &tasks); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  [%s] %s (%s)", t.ID, t.Status, t.Title, t.Priority)
		if t.DueDate != "" {
			line += " due " + t.DueDate
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a task candidate locally",
	Long: `Enhance and validate a task candidate without a server or model.

The input is a JSON object with "task", "transcript" and optional
"page_context" fields, read from a file or stdin.

Examples:
  jipctl check candidate.json
  echo '{"task":{"title":"Call mom"},"transcript":"call mom tonight"}' | jipctl check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var req pipeline.CheckRequest
	if err := json.Unmarshal(content, &req); err != nil {
		return fmt.Errorf("failed to parse candidate: %w", err)
	}

	res := pipeline.NewService(nil).Check(req)
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Report.IsValid {
		return fmt.Errorf("task candidate is invalid")
	}
	return nil
}
