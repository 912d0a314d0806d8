// Package mcpserver exposes a replay.Player as MCP tools so agents can
// push updates into a tree and query it.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/axtree/internal/ax"
	"github.com/agentic-research/axtree/internal/replay"
	"github.com/agentic-research/axtree/internal/source"
	"github.com/agentic-research/axtree/internal/tree"
)

// Server binds the tool set to a player.
type Server struct {
	player *replay.Player
	logger *slog.Logger
	mcp    *server.MCPServer
}

func New(player *replay.Player, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		player: player,
		logger: logger.With("component", "mcpserver"),
		mcp:    server.NewMCPServer("axtree", version, server.WithToolCapabilities(false)),
	}
	s.register()
	return s
}

// MCP returns the underlying server, e.g. for an alternative transport.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves the tools on stdin/stdout until EOF.
func (s *Server) ServeStdio() error { return server.ServeStdio(s.mcp) }

func (s *Server) register() {
	s.mcp.AddTool(mcp.NewTool("apply_update",
		mcp.WithDescription("Apply a tree update (JSON: one update, a list, or a script) to the live tree"),
		mcp.WithString("update", mcp.Required(), mcp.Description("JSON update document")),
	), s.applyUpdate)

	s.mcp.AddTool(mcp.NewTool("dump_tree",
		mcp.WithDescription("Print the tree, one node per line"),
		mcp.WithBoolean("verbose", mcp.Description("Include cached per-node values")),
	), s.dumpTree)

	s.mcp.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Describe one node: data, parent, children and ignored state"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
	), s.getNode)

	s.mcp.AddTool(mcp.NewTool("reverse_relations",
		mcp.WithDescription("List nodes whose id or id-list attribute points at target"),
		mcp.WithString("attribute", mcp.Required(), mcp.Description("Attribute name, e.g. labelledbyIds")),
		mcp.WithNumber("target", mcp.Required(), mcp.Description("Target node id")),
	), s.reverseRelations)

	s.mcp.AddTool(mcp.NewTool("set_info",
		mcp.WithDescription("Position in set and set size of a node"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
	), s.setInfo)

	s.mcp.AddTool(mcp.NewTool("tree_bounds",
		mcp.WithDescription("Bounds of a node in root coordinates"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithBoolean("clip", mcp.Description("Clip by ancestors that clip children (default true)")),
	), s.treeBounds)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func nodeID(req mcp.CallToolRequest, key string) (ax.NodeID, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	return ax.NodeID(v), nil
}

// withNode runs fn on the node named by the "id" argument under the
// player lock.
func (s *Server) withNode(req mcp.CallToolRequest, fn func(*tree.Tree, *tree.Node) (any, error)) (*mcp.CallToolResult, error) {
	id, err := nodeID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out any
	err = s.player.View(func(t *tree.Tree) error {
		n := t.GetFromID(id)
		if n == nil {
			return fmt.Errorf("node %d not in tree", id)
		}
		out, err = fn(t, n)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) applyUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("update")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updates, err := source.DecodeJSON([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.player.ApplyAll(ctx, updates); err != nil {
		s.logger.Debug("apply_update rejected", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.player.Snapshot(false)
	return jsonResult(map[string]any{
		"applied":     len(updates),
		"node_count":  snap.NodeCount,
		"root_id":     snap.RootID,
		"fingerprint": fmt.Sprintf("%016x", snap.Fingerprint),
	})
}

func (s *Server) dumpTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.player.Snapshot(req.GetBool("verbose", false))
	return mcp.NewToolResultText(snap.Dump), nil
}

type nodeView struct {
	ID                  ax.NodeID   `json:"id"`
	Data                string      `json:"data"`
	ParentID            ax.NodeID   `json:"parent_id,omitempty"`
	ChildIDs            []ax.NodeID `json:"child_ids,omitempty"`
	Ignored             bool        `json:"ignored"`
	UnignoredParentID   ax.NodeID   `json:"unignored_parent_id,omitempty"`
	UnignoredChildCount int         `json:"unignored_child_count"`
	IndexInParent       int         `json:"index_in_parent"`
	Name                string      `json:"name,omitempty"`
}

func (s *Server) getNode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withNode(req, func(_ *tree.Tree, n *tree.Node) (any, error) {
		v := nodeView{
			ID:                  n.ID(),
			Data:                n.String(),
			Ignored:             n.IsIgnored(),
			UnignoredChildCount: n.UnignoredChildCount(),
			IndexInParent:       n.IndexInParent(),
			Name:                n.ComputedName(),
		}
		if p := n.Parent(); p != nil {
			v.ParentID = p.ID()
		}
		if p := n.UnignoredParent(); p != nil {
			v.UnignoredParentID = p.ID()
		}
		for _, c := range n.Children() {
			v.ChildIDs = append(v.ChildIDs, c.ID())
		}
		return v, nil
	})
}

func (s *Server) reverseRelations(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("attribute")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := nodeID(req, "target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var ids []ax.NodeID
	var intAttr ax.IntAttribute
	var listAttr ax.IntListAttribute
	switch {
	case intAttr.UnmarshalText([]byte(name)) == nil:
		_ = s.player.View(func(t *tree.Tree) error {
			ids = t.ReverseRelations(intAttr, target)
			return nil
		})
	case listAttr.UnmarshalText([]byte(name)) == nil:
		_ = s.player.View(func(t *tree.Tree) error {
			ids = t.ReverseListRelations(listAttr, target)
			return nil
		})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown id attribute %q", name)), nil
	}
	if ids == nil {
		ids = []ax.NodeID{}
	}
	return jsonResult(map[string]any{"attribute": name, "target": target, "sources": ids})
}

func (s *Server) setInfo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.withNode(req, func(t *tree.Tree, n *tree.Node) (any, error) {
		out := map[string]any{"id": n.ID()}
		if pos, ok := t.PosInSet(n); ok {
			out["pos_in_set"] = pos
		}
		if size, ok := t.SetSize(n); ok {
			out["set_size"] = size
		}
		return out, nil
	})
}

func (s *Server) treeBounds(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clip := req.GetBool("clip", true)
	return s.withNode(req, func(t *tree.Tree, n *tree.Node) (any, error) {
		b, offscreen := t.RelativeToTreeBounds(n, clip)
		return map[string]any{"id": n.ID(), "bounds": b, "offscreen": offscreen}, nil
	})
}
