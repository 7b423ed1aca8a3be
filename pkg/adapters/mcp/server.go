package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs served by the MCP server.
const (
	// StateURI reads the live state as JSON.
	StateURI = "arbor://state"
	// GraphURI reads the action tree as a Mermaid graph.
	GraphURI = "arbor://graph"
)

// CallResponse is the structured result of call_action.
type CallResponse struct {
	Action    string       `json:"action" jsonschema_description:"Dotted path of the invoked action"`
	Namespace string       `json:"namespace" jsonschema_description:"Namespace the reducer was dispatched on"`
	State     domain.State `json:"state" jsonschema_description:"State after immediate reducers were applied"`
}

// Store is the state container exposed as MCP tools.
type Store interface {
	Namespace() string
	Actions() *tree.Tree
	State() *core.Machine[domain.State]
}

// Server wraps a Store and exposes it as an MCP Server.
type Server struct {
	store     Store
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(store Store, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		logger:    logging.OrNop(logger),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the dotted paths of every action in the tree."),
	), s.handleListActions)

	callTool := mcp.NewTool("call_action",
		mcp.WithDescription("Invoke an action by dotted path. Deferred actions complete in the background."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted action path, e.g. counter.increment")),
		mcp.WithString("args", mcp.Description("JSON array of arguments (optional)")),
		mcp.WithOutputSchema[CallResponse](),
	)
	s.mcpServer.AddTool(callTool, mcp.NewStructuredToolHandler(s.handleCallAction))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Read the current state, or the value under a dotted path."),
		mcp.WithString("path", mcp.Description("Dotted state path (optional)")),
	), s.handleGetState)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render the action tree as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.store.Actions(), nil)), nil
	})
}

func (s *Server) handleListActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actions := []string{}
	s.store.Actions().Walk(func(path []string, _ tree.Action) {
		actions = append(actions, tree.JoinPath(path))
	})
	jsonBytes, err := json.Marshal(actions)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCallAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CallResponse, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return CallResponse{}, errors.New("path is required")
	}

	var payload []any
	if raw, ok := args["args"].(string); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			s.logger.Warn("MCP call_action: invalid args", "action", path, "err", err)
			return CallResponse{}, fmt.Errorf("args must be a JSON array: %w", err)
		}
	}

	if err := s.store.Actions().Call(path, payload...); err != nil {
		return CallResponse{}, err
	}
	s.logger.Debug("MCP call_action", "action", path, "args", len(payload))

	return CallResponse{
		Action:    path,
		Namespace: s.store.Namespace(),
		State:     s.store.State().Get(),
	}, nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var v any = s.store.State().Get()

	if path, _ := request.GetArguments()["path"].(string); path != "" {
		found, ok := s.store.State().Get().Lookup(tree.ParsePath(path)...)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no state at %q", path)), nil
		}
		v = found
	}

	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.store.State().Get())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Action Tree",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.store.Actions(), nil),
			},
		}, nil
	})
}
