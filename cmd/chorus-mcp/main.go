// chorus-mcp exposes the inner chorus engine as an MCP stdio server.
//
// Environment variables:
//
//	CHORUS_PROVIDER  gemini (default) or openai
//	CHORUS_MODEL     model name
//	GEMINI_API_KEY   Gemini API key (or PROJECT_ID and LOCATION for Vertex AI)
//	OPENAI_API_KEY   OpenAI API key, with OPENAI_BASE_URL for compatible servers
//	CHORUS_JOURNAL   SQLite journal path (default: ./data/journal.db, "off" disables)
//	CHORUS_CONFIG    optional YAML config file
//
// Usage:
//
//	go install github.com/sat8bit/chorus/cmd/chorus-mcp
//	chorus-mcp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sat8bit/chorus/app"
	"github.com/sat8bit/chorus/chorus"
	"github.com/sat8bit/chorus/config"
	"github.com/sat8bit/chorus/journal"
	"github.com/sat8bit/chorus/state"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("chorus-mcp: load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CHORUS_CONFIG"))
	if err != nil {
		log.Fatalf("chorus-mcp: %v", err)
	}

	ctx := context.Background()
	// stdout is the MCP transport, so logs go to stderr.
	a, err := app.Build(ctx, cfg, app.Options{LogOutput: os.Stderr})
	if err != nil {
		log.Fatalf("chorus-mcp: %v", err)
	}
	defer a.Close(ctx)

	server := newServer(a.Engine, a.Journal, cfg.Settings)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("chorus-mcp: %v", err)
	}
}

func newServer(eng *chorus.Engine, j *journal.Journal, defaults state.Settings) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "chorus-mcp",
		Version: app.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "react",
		Description: "Let the inner voices react to a scene. Returns the selected voices, their 2d6 checks and their lines as JSON.",
	}, reactHandler(eng, defaults))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "voices",
		Description: "List every voice with its signature, attribute and base level.",
	}, voicesHandler(eng))

	if j != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "history",
			Description: "List the most recent recorded turns.",
		}, historyHandler(j))
	}
	return server
}

// --- Input types ---

type reactInput struct {
	Text              string         `json:"text"                         jsonschema:"Scene text the voices react to"`
	Levels            map[string]int `json:"levels,omitempty"             jsonschema:"Skill level per voice id, overriding base levels"`
	ActiveStatuses    []string       `json:"active_statuses,omitempty"    jsonschema:"Active status ids, e.g. drunk, the_pale"`
	ResearchPenalties map[string]int `json:"research_penalties,omitempty" jsonschema:"Temporary level deltas per voice id"`
	MinVoices         int            `json:"min_voices,omitempty"         jsonschema:"Minimum number of primary voices"`
	MaxVoices         int            `json:"max_voices,omitempty"         jsonschema:"Maximum number of voices (default 4)"`
	MaxCascade        *int           `json:"max_cascade,omitempty"        jsonschema:"Maximum number of cascade replies (default 2, 0 disables)"`
	DryRun            bool           `json:"dry_run,omitempty"            jsonschema:"Select and roll without calling the model"`
}

type voicesInput struct {
	Attribute string `json:"attribute,omitempty" jsonschema:"Optional filter: intellect, psyche, physique, motorics, primal"`
}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max turns to list (default 10)"`
}

// --- Handlers ---

func reactHandler(eng *chorus.Engine, defaults state.Settings) func(context.Context, *mcp.CallToolRequest, reactInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input reactInput) (*mcp.CallToolResult, any, error) {
		snap := state.Snapshot{
			Levels:            input.Levels,
			ActiveStatuses:    input.ActiveStatuses,
			ResearchPenalties: input.ResearchPenalties,
			Settings: state.Settings{
				MinVoices:  input.MinVoices,
				MaxVoices:  input.MaxVoices,
				MaxCascade: input.MaxCascade,
			}.WithDefaults(defaults),
		}

		var (
			tr  *chorus.Turn
			err error
		)
		if input.DryRun {
			tr, err = eng.Plan(ctx, input.Text, snap)
		} else {
			tr, err = eng.React(ctx, input.Text, snap)
		}
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(tr.View())), nil, nil
	}
}

func voicesHandler(eng *chorus.Engine) func(context.Context, *mcp.CallToolRequest, voicesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input voicesInput) (*mcp.CallToolResult, any, error) {
		var out []map[string]any
		for _, v := range eng.Catalog().Pool.All() {
			if input.Attribute != "" && string(v.Attribute) != input.Attribute {
				continue
			}
			out = append(out, map[string]any{
				"id":         v.ID,
				"name":       v.Name,
				"signature":  v.Signature,
				"attribute":  v.Attribute,
				"base_level": v.BaseLevel,
				"primal":     v.Primal,
			})
		}
		return textResult(jsonString(out)), nil, nil
	}
}

func historyHandler(j *journal.Journal) func(context.Context, *mcp.CallToolRequest, historyInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, any, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		turns, err := j.Recent(ctx, limit)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}

		out := make([]map[string]any, len(turns))
		for i, t := range turns {
			out[i] = map[string]any{
				"turn_id":  t.TurnID,
				"at":       t.At.Format(time.RFC3339),
				"scene":    t.Scene,
				"voices":   t.Voices,
				"dropped":  t.Dropped,
				"fallback": t.Fallback,
			}
		}
		return textResult(jsonString(out)), nil, nil
	}
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal: %v"}`, err)
	}
	return string(data)
}
