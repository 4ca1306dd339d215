package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
	"github.com/citygrid/road-rotate-game/game/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Road Rotate City Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Road Rotate City Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Rotate road tiles until every landmark (L) is connected to the turnpike (T)
through a continuous chain of road openings.

AVAILABLE TOOLS:
- puzzle_state: Get current puzzle state with grid rendering
- rotate_tile: Rotate one tile 90 degrees clockwise - requires intent explanation
- bulk_rotate: Rotate a sequence of tiles - requires intent explanation
- reset_puzzle: Restore the scrambled starting rotations
- rotation_history: View past rotations
- hint: Reveal the solution rotation of one misrotated tile
- create_session: Create new puzzle session (procedural or hand-authored)
- get_session: Get session details
- list_sessions: List all active sessions
- list_difficulties: List generation tiers and their parameters
- list_levels: List hand-authored levels
- high_scores: Best rotation counts per difficulty
- game_instructions: Get comprehensive puzzle instructions and rules
- describe_tile: Get detailed info about one grid cell (kind, rotation, openings)

NOTE: The 'intent' parameter on rotate tools serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session. Omit all parameters for a default procedural puzzle, or pick a difficulty/seed, or name a hand-authored level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"difficulty": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"easy", "medium", "hard"},
					"description": "Generation difficulty (optional, default easy)",
				},
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "Level number within the difficulty, scales the grid (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Generation seed for a reproducible puzzle (optional)",
				},
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Hand-authored level name; overrides the procedural parameters (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Puzzle operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_state",
		Description: "Get the current puzzle state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePuzzleState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rotate_tile",
		Description: "Rotate the tile at (row, col) by 90 degrees clockwise",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the tile to rotate (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the tile to rotate (0-based)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this rotation (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset to the scrambled state before rotating",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleRotateTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_rotate",
		Description: "Execute multiple tile rotations in sequence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"rotations": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row": map[string]interface{}{"type": "integer"},
							"col": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"row", "col"},
					},
					"description": "Array of {row, col} positions, each rotated 90 degrees clockwise in order",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of rotations (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset to the scrambled state before rotating",
				},
			},
			Required: []string{"session_id", "rotations"},
		},
	}, c.handleBulkRotate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_puzzle",
		Description: "Restore the puzzle's scrambled starting rotations",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rotation_history",
		Description: "Get rotation history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRotationHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Reveal the solution rotation of one tile that is currently misrotated",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_difficulties",
		Description: "List the generation difficulties and their parameters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListDifficulties)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List the hand-authored levels available for session creation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "high_scores",
		Description: "Get the best (lowest) solve rotation counts per difficulty",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleHighScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive puzzle instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Get detailed information about a specific grid cell: kind, tier, current rotation, solution-relevant openings and whether it can be rotated. Useful for verifying your reading of the grid glyphs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the cell to describe (0-based)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the cell to describe (0-based)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeTile)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	body := map[string]interface{}{}
	if difficulty, _ := args["difficulty"].(string); difficulty != "" {
		body["difficulty"] = difficulty
	}
	if level, ok := args["level"].(float64); ok {
		body["level"] = int(level)
	}
	if seed, ok := args["seed"].(float64); ok {
		body["seed"] = uint32(seed)
	}
	if levelID, _ := args["level_id"].(string); levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nDifficulty: %s (level %d, seed %d)\n\n%s",
		session.ID, session.Difficulty, session.LevelNumber, session.Seed,
		formatPuzzleState(session.PuzzleState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Difficulty: %s, Level: %d, Created: %s)\n",
			s.ID, s.Difficulty, s.LevelNumber, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatSessionInfo(&session)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handlePuzzleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var state engine.PuzzleState
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatPuzzleState(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRotateTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	row, _ := args["row"].(float64)
	col, _ := args["col"].(float64)
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	body := map[string]interface{}{
		"row":   int(row),
		"col":   int(col),
		"reset": reset,
	}

	var result service.RotateResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/rotate", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatRotateResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleBulkRotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	rotationsRaw, _ := args["rotations"].([]interface{})
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	// Convert rotations to {row, col} objects
	rotations := make([]map[string]int, 0, len(rotationsRaw))
	for _, r := range rotationsRaw {
		entry, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		row, _ := entry["row"].(float64)
		col, _ := entry["col"].(float64)
		rotations = append(rotations, map[string]int{"row": int(row), "col": int(col)})
	}

	body := map[string]interface{}{
		"rotations": rotations,
		"reset":     reset,
	}

	var result service.BulkRotateResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/bulk-rotate", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatBulkRotateResult(sessionID, &result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var response struct {
		Message string              `json:"message"`
		State   *engine.PuzzleState `json:"state"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatPuzzleState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRotationHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	params := "?"
	if page, ok := args["page"].(float64); ok {
		params += fmt.Sprintf("page=%d&", int(page))
	}
	if limit, ok := args["limit"].(float64); ok {
		params += fmt.Sprintf("limit=%d&", int(limit))
	}

	var history service.HistoryResponse
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/history%s", sessionID, params), nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	// The hint endpoint returns either a hint object or a message when
	// everything already matches; decode generically to cover both.
	var raw map[string]interface{}
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/hint", sessionID), nil, &raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if msg, ok := raw["message"].(string); ok {
		return mcp.NewToolResultText(msg), nil
	}

	data, _ := json.Marshal(raw)
	var hint engine.HintInfo
	if err := json.Unmarshal(data, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHint(&hint)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListDifficulties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var difficulties []service.DifficultyInfo
	err := c.apiCall("GET", "/api/difficulties", nil, &difficulties)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Difficulties:\n\n"
	for _, d := range difficulties {
		result += fmt.Sprintf("• %s\n  Grid: %dx%d, Landmarks: %d, Min path: %d, Detour probability: %.2f\n\n",
			d.Difficulty, d.GridSize, d.GridSize, d.DestinationCount, d.MinPathLength, d.DetourProbability)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	err := c.apiCall("GET", "/api/levels", nil, &levels)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Levels:\n\n"
	for _, level := range levels {
		result += fmt.Sprintf("• %s (level_id: %s)\n  %s\n  Grid: %dx%d, Landmarks: %d\n\n",
			level.Name, level.LevelID, level.Description,
			level.GridSize, level.GridSize, level.Destinations)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleHighScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scores map[string]int
	err := c.apiCall("GET", "/api/highscores", nil, &scores)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(scores) == 0 {
		return mcp.NewToolResultText("No puzzles solved yet - no high scores recorded."), nil
	}

	result := "Best Rotation Counts:\n\n"
	for _, difficulty := range []string{"easy", "medium", "hard"} {
		if best, ok := scores[difficulty]; ok {
			result += fmt.Sprintf("• %s: %d rotations\n", difficulty, best)
		}
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🧩 Road Rotate City Puzzle - Complete Instructions

GAME OBJECTIVE:
Rotate road tiles until every landmark is connected to the central turnpike
through a continuous chain of matching road openings.

GAME MECHANICS:
• Rotation: Each rotate_tile call turns one tile 90° clockwise and counts toward your total
• Connectivity: Two neighboring tiles connect only when BOTH open toward each other
• Road tiers: houses only attach to local roads; landmarks and the turnpike accept local and arterial roads
• Victory: All landmarks simultaneously connected to the turnpike
• Score: Fewer rotations is better; per-difficulty best counts are kept as high scores

GRID LEGEND (one glyph per cell):
• T - Turnpike (the goal; fixed, never rotates)
• L - Landmark (a destination; fixed, never rotates)
• H - House (decoration; fixed)
• │ ─ - Straight road (vertical / horizontal at its current rotation)
• └ ┌ ┐ ┘ - Corner road (the two open edges point along the drawn arms)
• ├ ┬ ┤ ┴ - T-junction road (three open edges)
• ┼ - Crossroads (all four edges open)
• . - Empty cell (no tile, roads never pass through)

🤖 AI AGENTS - CRITICAL SUCCESS STRATEGIES:

⚠️ ROTATION ARITHMETIC (MOST COMMON FAILURE POINT):
Rotations are always +90° clockwise and wrap at 360°. To bring a tile from
rotation 270 to rotation 90 you need TWO rotations (270→0→90), not one.
Count the clockwise steps: steps = ((target - current) / 90 + 4) mod 4.

🗺️ READ THE GLYPHS, NOT YOUR ASSUMPTIONS:
1. The glyph shows the CURRENT openings, which may be wrong - that is the puzzle
2. A '│' between two horizontal neighbors connects to NOTHING; it needs one rotation
3. Corners are the usual trap: └ opens north+east, one clockwise step gives ┌ (east+south)
4. Use describe_tile whenever a glyph is ambiguous to you - it lists the exact open edges

🧩 SOLVE FROM THE TURNPIKE OUTWARD:
- Locate the turnpike (T) and every landmark (L) first
- Fix the tiles adjacent to the turnpike, then walk each path toward its landmark
- The connected-landmark count in the state header tells you when a branch is done
- Straights need at most 1 rotation, corners and t-junctions at most 3

⚡ EFFICIENT API USAGE:
- Plan a full branch, then submit it as one bulk_rotate call (up to 100 rotations)
- bulk_rotate stops early on a failed rotation or on solve - check stopped_reason
- Use reset_puzzle to return to the scrambled start; history survives the reset
- hint reveals one misrotated tile and how many remain - use it when stuck, it costs nothing

🚨 CRITICAL PITFALLS TO AVOID:
- ❌ Rotating T, L or H tiles - they are fixed and the call fails
- ❌ Rotating counter-clockwise in your head - the API only turns clockwise
- ❌ Treating a glyph as "already correct" without checking both of its neighbors
- ❌ Submitting rotations one at a time when a planned bulk_rotate would do

ROTATION COMMANDS:
- rotate_tile: single 90° clockwise rotation at {row, col}
- bulk_rotate: sequence of rotations, executed in order
- Reset parameter available on both for fresh starts

VICTORY CONDITIONS:
- Every landmark reaches the turnpike through connected openings
- The state message shows "Solved in N rotations!" when this happens
- A new per-difficulty best is reported on the solving rotation

SESSION MANAGEMENT:
- Multiple puzzle sessions can run simultaneously
- Each session has a unique 4-character ID
- Procedural sessions: pick difficulty (easy/medium/hard), level and seed
- Hand-authored sessions: pass level_id from list_levels
- The same difficulty/level/seed triple always produces the identical puzzle

Remember: the puzzle is pure geometry - read each tile's openings carefully,
count clockwise steps, and connect branch by branch. Good luck! 🛣️`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	row := int(args["row"].(float64))
	col := int(args["col"].(float64))

	// Get the current puzzle state to access the grid
	var state engine.PuzzleState
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Check bounds
	if row < 0 || row >= state.Rows || col < 0 || col >= state.Cols {
		return mcp.NewToolResultError(fmt.Sprintf("Position (%d, %d) is out of bounds. Grid size is %dx%d (0-%d rows, 0-%d cols)",
			row, col, state.Rows, state.Cols, state.Rows-1, state.Cols-1)), nil
	}

	tile := state.Grid[row][col]
	if tile == nil {
		result := fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Glyph: .
Type: Empty
Rotatable: false
Description: Empty cell - no tile here, roads never pass through it`, row, col)
		return mcp.NewToolResultText(result), nil
	}

	openings := make([]string, 0, 4)
	for _, d := range tile.Openings() {
		openings = append(openings, d.String())
	}

	description := describeTileKind(tile)
	result := fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Glyph: %s
Type: %s (tier: %s)
Rotation: %d°
Rotatable: %v
Open edges: %s
Description: %s`,
		row, col,
		tileGlyph(tile),
		tile.Kind, tile.Tier,
		tile.Rotation,
		tile.Rotatable,
		strings.Join(openings, ", "),
		description)

	return mcp.NewToolResultText(result), nil
}

func describeTileKind(tile *engine.TileConfig) string {
	switch tile.Kind {
	case engine.KindTurnpike:
		return "The turnpike - connect every landmark to this tile. It never rotates."
	case engine.KindLandmark:
		name := tile.LandmarkType
		if name == "" {
			name = "landmark"
		}
		return fmt.Sprintf("Landmark (%s) - a destination that must reach the turnpike. It never rotates.", name)
	case engine.KindHouse:
		return "House decoration - cosmetic, never part of a solution path."
	case engine.KindStraight:
		return "Straight road - opens on two opposite edges. One rotation flips it between vertical and horizontal."
	case engine.KindCorner:
		return "Corner road - opens on two adjacent edges. Up to three rotations to reach any orientation."
	case engine.KindTJunction:
		return "T-junction road - opens on three edges, the drawn arms show which."
	case engine.KindCrossroads:
		return "Crossroads - all four edges open; rotating it changes nothing topologically."
	}
	return "Unknown tile kind"
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nDifficulty: %s (level %d, seed %d)\nCreated: %s\n\n%s",
		session.ID, session.Difficulty, session.LevelNumber, session.Seed,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatPuzzleState(session.PuzzleState))
}

func formatPuzzleState(state *engine.PuzzleState) string {
	if state == nil {
		return "No puzzle state available"
	}

	var result strings.Builder

	// Header
	result.WriteString(fmt.Sprintf("Connected: %d/%d landmarks | Rotations: %d\n\n",
		len(state.ConnectedDestinations), state.TotalDestinations, state.RotationCount))

	// Grid
	for r := 0; r < state.Rows; r++ {
		for c := 0; c < state.Cols; c++ {
			result.WriteString(tileGlyph(state.Grid[r][c]))
		}
		result.WriteString("\n")
	}

	// Status
	if state.Solved {
		result.WriteString("\n🎉 SOLVED!")
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

// tileGlyph maps a tile to its single-character grid representation based on
// the openings at its current rotation.
func tileGlyph(tile *engine.TileConfig) string {
	if tile == nil {
		return "."
	}

	switch tile.Kind {
	case engine.KindTurnpike:
		return "T"
	case engine.KindLandmark:
		return "L"
	case engine.KindHouse:
		return "H"
	}

	var mask int
	for _, d := range tile.Openings() {
		switch d {
		case engine.North:
			mask |= 1
		case engine.East:
			mask |= 2
		case engine.South:
			mask |= 4
		case engine.West:
			mask |= 8
		}
	}

	switch mask {
	case 1 | 4:
		return "│"
	case 2 | 8:
		return "─"
	case 1 | 2:
		return "└"
	case 2 | 4:
		return "┌"
	case 4 | 8:
		return "┐"
	case 8 | 1:
		return "┘"
	case 1 | 2 | 4:
		return "├"
	case 2 | 4 | 8:
		return "┬"
	case 4 | 8 | 1:
		return "┤"
	case 8 | 1 | 2:
		return "┴"
	case 1 | 2 | 4 | 8:
		return "┼"
	}
	return "?"
}

func formatRotateResult(result *service.RotateResult) string {
	response := ""
	if result.Success {
		response = "✓ Rotation successful\n"
	} else {
		response = "✗ Rotation failed\n"
	}

	if result.Message != "" {
		response += result.Message + "\n"
	}

	if result.Solved && result.NewHighScore {
		response += fmt.Sprintf("🏆 New high score: %d rotations!\n", result.BestRotations)
	}

	response += "\n" + formatPuzzleState(result.PuzzleState)
	return response
}

func formatBulkRotateResult(sessionID string, result *service.BulkRotateResult) string {
	var b strings.Builder

	// Session header
	rows, cols := 0, 0
	if result.PuzzleState != nil {
		rows, cols = result.PuzzleState.Rows, result.PuzzleState.Cols
	}
	b.WriteString(fmt.Sprintf("Session: %s • Grid: %dx%d\n", sessionID, rows, cols))

	// Bulk summary
	b.WriteString(fmt.Sprintf("Executed %d/%d rotations\n", result.RotationsExecuted, result.RequestedRotations))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Truncated to the per-call limit of %d rotations\n", result.Limit))
	}
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped: %s", result.StoppedReason))
		if result.StoppedOnRotation > 0 {
			b.WriteString(fmt.Sprintf(" (on rotation %d)", result.StoppedOnRotation))
		}
		b.WriteString("\n")
	}
	if result.Solved && result.SolvedOnRotation > 0 {
		b.WriteString(fmt.Sprintf("Solved on rotation %d of this call\n", result.SolvedOnRotation))
	}
	if result.Solved && result.NewHighScore {
		b.WriteString(fmt.Sprintf("🏆 New high score: %d rotations!\n", result.BestRotations))
	}

	// Recent rotations: last N history entries where N = rotations_executed
	if result.PuzzleState != nil && result.RotationsExecuted > 0 {
		history := result.PuzzleState.History
		n := result.RotationsExecuted
		if n > len(history) {
			n = len(history)
		}
		if n > 0 {
			b.WriteString("\nRotations (this call):\n")
			for i, entry := range history[len(history)-n:] {
				status := ""
				if entry.Solved {
					status = " ← solved"
				}
				b.WriteString(fmt.Sprintf("%d. (%d,%d) %d°→%d°%s\n",
					i+1, entry.Position.Row, entry.Position.Col,
					entry.FromRotation, entry.ToRotation, status))
			}
		}
	}

	// Full state at the end
	b.WriteString("\n")
	b.WriteString(formatPuzzleState(result.PuzzleState))
	return b.String()
}

func formatHint(hint *engine.HintInfo) string {
	steps := ((hint.SolutionRotation-hint.CurrentRotation)/90 + 4) % 4
	return fmt.Sprintf(`Hint: tile at (%d, %d) is misrotated.
Current rotation: %d°
Solution rotation: %d°
Clockwise rotations needed: %d
Misrotated tiles remaining (including this one): %d`,
		hint.Position.Row, hint.Position.Col,
		hint.CurrentRotation, hint.SolutionRotation,
		steps, hint.Remaining)
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Rotation History (Page %d/%d) — Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalRotations)

	for i, entry := range history.Rotations {
		num := (history.Page-1)*history.PageSize + i + 1
		status := ""
		if entry.Solved {
			status = " ← solved"
		}
		result += fmt.Sprintf("%d. #%d (%d,%d) %d°→%d°%s\n",
			num, entry.RotationNumber, entry.Position.Row, entry.Position.Col,
			entry.FromRotation, entry.ToRotation, status)
	}

	return result
}
