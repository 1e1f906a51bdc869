// Package generation turns a form schema tree plus an encounter transcript
// into a response tree. Composite nodes fan out concurrently per child and
// join before returning; leaf-level failures are contained as null leaves
// and never fail the run as a whole.
package generation

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/notescribe-backend/internal/platform/logger"
	"github.com/yungbote/notescribe-backend/internal/platform/openai"
	"github.com/yungbote/notescribe-backend/internal/schema"
)

const (
	DefaultMaxDepth    = 2
	DefaultConcurrency = 8

	// Wrapper schema names are capped; remote providers reject long ones.
	maxSchemaNameLen = 64
)

type Generator struct {
	log         *logger.Logger
	llm         openai.Client
	maxDepth    int
	concurrency int
}

func New(baseLog *logger.Logger, llm openai.Client, maxDepth int, concurrency int) *Generator {
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Generator{
		log:         baseLog.With("component", "FormGenerator"),
		llm:         llm,
		maxDepth:    maxDepth,
		concurrency: concurrency,
	}
}

// Build produces a response tree shaped exactly like node: every composite
// key is present, every leaf is a concrete value or null. The returned
// value is always shape-complete even when every remote call fails.
func (g *Generator) Build(ctx context.Context, node *schema.Node, systemPrompt string, transcript string) any {
	if node == nil {
		return nil
	}
	return g.build(ctx, node, systemPrompt, transcript, nil)
}

func (g *Generator) build(ctx context.Context, node *schema.Node, prompt string, transcript string, path []string) any {
	// At or past the depth bound, or at a leaf, the whole remaining
	// subtree is answered by a single structured call.
	if node.Leaf() || len(path) >= g.maxDepth {
		return g.generateSubtree(ctx, node, prompt, transcript, path)
	}

	results := make([]any, len(node.Keys))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)
	for i, key := range node.Keys {
		i, key := i, key
		child := node.Children[key]
		childPath := append(append([]string(nil), path...), key)
		grp.Go(func() error {
			results[i] = g.build(gctx, child, prompt, transcript, childPath)
			return nil
		})
	}
	// Children only ever return nil; Wait is a join point.
	_ = grp.Wait()

	out := make(map[string]any, len(node.Keys))
	for i, key := range node.Keys {
		out[key] = results[i]
	}
	return out
}

// generateSubtree asks for the subtree at path in one call, wrapping the
// node in a single-key object so the provider always receives an object
// schema. A failed call yields a null subtree, nothing more.
func (g *Generator) generateSubtree(ctx context.Context, node *schema.Node, prompt string, transcript string, path []string) any {
	name := subtreeName(path)
	wrapper := schema.Object(schema.F(name, node))

	raw, err := g.llm.GenerateJSON(ctx, prompt, transcript, name, wrapper.JSONSchema())
	if err != nil {
		g.log.Warn("Subtree generation failed",
			"path", strings.Join(path, "."),
			"error", err,
		)
		return node.NullValue()
	}
	return raw[name]
}

func subtreeName(path []string) string {
	name := "root"
	if len(path) > 0 {
		name = strings.Join(path, "_")
	}
	if len(name) > maxSchemaNameLen {
		name = name[:maxSchemaNameLen]
	}
	return name
}
