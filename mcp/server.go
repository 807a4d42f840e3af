// Package mcp exposes image generation as a Model Context Protocol tool over
// line-delimited JSON-RPC on stdio.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bitop-dev/firefly"
)

const (
	// ToolGenerateImage is the name of the single tool this server offers.
	ToolGenerateImage = "generate_image"

	// ProtocolVersion is answered when the client does not name one.
	ProtocolVersion = "2025-06-18"
)

// ErrMissingCredentials is reported when neither the tool arguments nor the
// server configuration carry a client ID and secret.
var ErrMissingCredentials = errors.New("client_id and client_secret must be provided as arguments or via FIREFLY_CLIENT_ID and FIREFLY_CLIENT_SECRET")

var generateImageSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "prompt": {"type": "string", "description": "Text prompt for image generation"},
    "client_id": {"type": "string", "description": "Firefly client ID (defaults to FIREFLY_CLIENT_ID)"},
    "client_secret": {"type": "string", "description": "Firefly client secret (defaults to FIREFLY_CLIENT_SECRET)"},
    "num_variations": {"type": "integer", "minimum": 1, "maximum": 4, "default": 1},
    "style": {"type": "object"},
    "structure": {"type": "object"},
    "prompt_biasing_locale_code": {"type": "string"},
    "negative_prompt": {"type": "string"},
    "seed": {"type": "integer"},
    "aspect_ratio": {"type": "string"},
    "output_format": {"type": "string"},
    "content_class": {"type": "string", "enum": ["photo", "art"]}
  },
  "required": ["prompt"]
}`)

type generateImageArgs struct {
	Prompt                  string         `json:"prompt"`
	ClientID                string         `json:"client_id"`
	ClientSecret            string         `json:"client_secret"`
	NumVariations           *int           `json:"num_variations"`
	Style                   map[string]any `json:"style"`
	Structure               map[string]any `json:"structure"`
	PromptBiasingLocaleCode string         `json:"prompt_biasing_locale_code"`
	NegativePrompt          string         `json:"negative_prompt"`
	Seed                    *int64         `json:"seed"`
	AspectRatio             string         `json:"aspect_ratio"`
	OutputFormat            string         `json:"output_format"`
	ContentClass            string         `json:"content_class"`
}

func (a generateImageArgs) request() firefly.GenerateImageRequest {
	n := 1
	if a.NumVariations != nil {
		n = *a.NumVariations
	}
	return firefly.GenerateImageRequest{
		Prompt:                  a.Prompt,
		NumVariations:           n,
		Style:                   a.Style,
		Structure:               a.Structure,
		PromptBiasingLocaleCode: a.PromptBiasingLocaleCode,
		NegativePrompt:          a.NegativePrompt,
		Seed:                    a.Seed,
		AspectRatio:             a.AspectRatio,
		OutputFormat:            a.OutputFormat,
		ContentClass:            a.ContentClass,
	}
}

type credentials struct{ id, secret string }

// Server answers MCP requests. Clients are cached per credential pair so
// repeated tool calls reuse one access token.
type Server struct {
	base    firefly.Config
	info    ServerInfo
	log     *slog.Logger
	mu      sync.Mutex
	clients map[credentials]*firefly.Client
}

// NewServer returns a Server whose clients are built from base. base may
// leave ClientID and ClientSecret empty when every tool call supplies them.
func NewServer(base firefly.Config, version string) *Server {
	log := base.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		base:    base,
		info:    ServerInfo{Name: "firefly", Version: version},
		log:     log,
		clients: make(map[credentials]*firefly.Client),
	}
}

// Serve reads one JSON-RPC message per line from r and writes responses to w
// until r is exhausted or ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			if resp := s.handle(ctx, line); resp != nil {
				if werr := writeMessage(w, resp); werr != nil {
					return werr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("mcp: reading request: %w", err)
		}
	}
}

func writeMessage(w io.Writer, resp *rpcResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("mcp: encoding response: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("mcp: writing response: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, line []byte) *rpcResponse {
	var req rpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(nil, codeParseError, "parse error: "+err.Error())
	}
	if req.Method == "" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, codeInvalidRequest, "missing method")
	}
	s.log.DebugContext(ctx, "mcp request", "method", req.Method)

	result, rerr := s.dispatch(ctx, &req)
	if req.isNotification() {
		return nil
	}
	if rerr != nil {
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rerr}
	}
	return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *rpcRequest) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		var p initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
			}
		}
		version := p.ProtocolVersion
		if version == "" {
			version = ProtocolVersion
		}
		return InitializeResult{
			ProtocolVersion: version,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      s.info,
			Instructions:    "Use generate_image to create images from a text prompt with Adobe Firefly.",
		}, nil
	case "notifications/initialized", "notifications/cancelled":
		return nil, nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return toolListResult{Tools: []ToolInfo{{
			Name:        ToolGenerateImage,
			Description: "Generate images from a text prompt using Adobe Firefly. Returns the raw generation response as JSON.",
			InputSchema: generateImageSchema,
		}}}, nil
	case "tools/call":
		var p callToolParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
		}
		if p.Name != ToolGenerateImage {
			return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown tool %q", p.Name)}
		}
		return s.generateImage(ctx, p.Arguments), nil
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

// generateImage runs the tool. Failures are reported in the tool result so
// the model can see them.
func (s *Server) generateImage(ctx context.Context, rawArgs json.RawMessage) CallToolResult {
	var args generateImageArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return textResult("invalid arguments: "+err.Error(), true)
		}
	}
	client, err := s.client(args.ClientID, args.ClientSecret)
	if err != nil {
		return textResult(err.Error(), true)
	}
	resp, err := client.GenerateImage(ctx, args.request())
	if err != nil {
		s.log.WarnContext(ctx, "generate_image failed", "err", err)
		return textResult(err.Error(), true)
	}
	return textResult(string(resp.Raw()), false)
}

func (s *Server) client(id, secret string) (*firefly.Client, error) {
	if id == "" {
		id = s.base.ClientID
	}
	if secret == "" {
		secret = s.base.ClientSecret
	}
	if id == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	key := credentials{id, secret}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		return c, nil
	}
	cfg := s.base
	cfg.ClientID, cfg.ClientSecret = id, secret
	c := firefly.NewClient(cfg)
	s.clients[key] = c
	return c, nil
}

func errorResponse(id json.RawMessage, code int64, msg string) *rpcResponse {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}
