package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"askbob-medical/backend/internal/agent"
	"askbob-medical/backend/internal/graph"
	"askbob-medical/backend/internal/memory"
)

const helpText = `Commands:
  /help
  /exit
  /use <user|patient|encounter> <id>
  /context
  /search <query> [--limit N] [--user U] [--patient P] [--encounter E]
  /graph active_meds <patient_id>
  /graph encounter <encounter_id>
  /graph timeline <patient_id> [--limit N]
  /graph med_pairs <patient_id>`

// CLI is the line-oriented chat client. Plain lines go to the agent;
// slash commands manage context and query memory and the graph
// directly.
type CLI struct {
	in     io.Reader
	out    io.Writer
	memory memory.Backend
	agent  *agent.MemoryAgent
	graph  graph.Store

	userID      string
	patientID   string
	encounterID string
}

func NewCLI(in io.Reader, out io.Writer, backend memory.Backend, a *agent.MemoryAgent, store graph.Store) *CLI {
	return &CLI{
		in:     in,
		out:    out,
		memory: backend,
		agent:  a,
		graph:  store,
		userID: "default",
	}
}

// Run reads lines until EOF or /exit
func (c *CLI) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "AskBob CLI ready. Type /help for commands.")
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "askbob> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !c.handleCommand(ctx, line) {
				return nil
			}
			continue
		}
		c.chat(ctx, line)
	}
}

func (c *CLI) chat(ctx context.Context, message string) {
	result, err := c.agent.Respond(ctx, c.userID, message, agent.RespondOptions{
		Metadata: c.scopeMap(),
		Filters:  c.scopeMap(),
	})
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "assistant: %s\n", result.Content)
}

// handleCommand returns false when the session should end
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	tokens := strings.Fields(line)
	command := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch command {
	case "/exit", "/quit":
		return false
	case "/help":
		fmt.Fprintln(c.out, helpText)
	case "/use":
		c.cmdUse(args)
	case "/context":
		c.printContext()
	case "/search":
		c.cmdSearch(ctx, args)
	case "/graph":
		c.cmdGraph(ctx, args)
	default:
		fmt.Fprintln(c.out, "Unknown command. Type /help.")
	}
	return true
}

func (c *CLI) cmdUse(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /use <user|patient|encounter> <id>")
		return
	}
	switch strings.ToLower(args[0]) {
	case "user":
		c.userID = args[1]
	case "patient":
		c.patientID = args[1]
	case "encounter":
		c.encounterID = args[1]
	default:
		fmt.Fprintln(c.out, "Unknown scope. Use user|patient|encounter.")
	}
	c.printContext()
}

func (c *CLI) cmdSearch(ctx context.Context, args []string) {
	query, opts := parseKVArgs(args)
	if query == "" {
		fmt.Fprintln(c.out, "Usage: /search <query> [--limit N] [--user U] [--patient P] [--encounter E]")
		return
	}

	userID := c.userID
	if v, ok := opts["user"]; ok {
		userID = v
	}
	limit := 5
	if v, ok := opts["limit"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	filters := map[string]any{}
	if v := firstOf(opts["patient"], c.patientID); v != "" {
		filters["patient_id"] = v
	}
	if v := firstOf(opts["encounter"], c.encounterID); v != "" {
		filters["encounter_id"] = v
	}

	result, err := c.memory.Search(ctx, memory.SearchParams{
		Query: query, UserID: userID, Limit: limit, Filters: filters,
	})
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	if len(result.Results) == 0 {
		fmt.Fprintln(c.out, "No results.")
		return
	}
	for i, entry := range result.Results {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, entry.Memory)
	}
}

func (c *CLI) cmdGraph(ctx context.Context, args []string) {
	if c.graph == nil {
		fmt.Fprintln(c.out, "Graph store not enabled.")
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /graph <active_meds|encounter|timeline|med_pairs> <id> [--limit N]")
		return
	}
	action := strings.ToLower(args[0])
	target := args[1]

	switch action {
	case "active_meds":
		medications, err := c.graph.ActiveMedications(ctx, target)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		c.printRows(medications)
	case "encounter":
		record, err := c.graph.EncounterRecord(ctx, target)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		if record.Encounter == nil {
			fmt.Fprintln(c.out, "Encounter not found.")
			return
		}
		c.printJSON(record)
	case "timeline":
		limit := 50
		if _, opts := parseKVArgs(args[2:]); opts["limit"] != "" {
			if parsed, err := strconv.Atoi(opts["limit"]); err == nil {
				limit = parsed
			}
		}
		timeline, err := c.graph.PatientTimeline(ctx, target, limit)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		c.printRows(timeline)
	case "med_pairs":
		pairs, err := c.graph.MedicationPairs(ctx, target)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
		c.printRows(pairs)
	default:
		fmt.Fprintln(c.out, "Unknown graph action.")
	}
}

func (c *CLI) printRows(rows any) {
	encoded, _ := json.Marshal(rows)
	var items []json.RawMessage
	if err := json.Unmarshal(encoded, &items); err != nil || len(items) == 0 {
		fmt.Fprintln(c.out, "No results.")
		return
	}
	for _, item := range items {
		fmt.Fprintln(c.out, string(item))
	}
}

func (c *CLI) printJSON(v any) {
	encoded, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(c.out, string(encoded))
}

func (c *CLI) printContext() {
	fmt.Fprintf(c.out, "user_id=%s patient_id=%s encounter_id=%s\n",
		c.userID, orDash(c.patientID), orDash(c.encounterID))
}

// scopeMap is the patient/encounter scope attached to chat turns, nil
// when no scope is set
func (c *CLI) scopeMap() map[string]any {
	scope := map[string]any{}
	if c.patientID != "" {
		scope["patient_id"] = c.patientID
	}
	if c.encounterID != "" {
		scope["encounter_id"] = c.encounterID
	}
	if len(scope) == 0 {
		return nil
	}
	return scope
}

// parseKVArgs splits tokens into free text and --key value (or
// --key=value) options
func parseKVArgs(args []string) (string, map[string]string) {
	opts := map[string]string{}
	var queryParts []string
	for i := 0; i < len(args); i++ {
		token := args[i]
		if !strings.HasPrefix(token, "--") {
			queryParts = append(queryParts, token)
			continue
		}
		key := token[2:]
		if k, v, found := strings.Cut(key, "="); found {
			opts[k] = v
			continue
		}
		if i+1 < len(args) {
			opts[key] = args[i+1]
			i++
		}
	}
	return strings.Join(queryParts, " "), opts
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
