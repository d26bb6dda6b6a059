package idgen

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator hands out primary keys and human-readable document numbers.
// Numbers come from a snowflake node so several instances never collide.
type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) NewID() uuid.UUID {
	return uuid.New()
}

// NextNumber returns e.g. "INV-3C1XJ4K9F2T" for prefix "INV".
func (g *Generator) NextNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(g.node.Generate().Base36())
}
