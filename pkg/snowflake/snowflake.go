package snowflake

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake",
	fx.Provide(NewNode),
)

// NodeID identifies the generating process. It must be unique across every
// process writing to the same store.
type NodeID int64

// Node wraps snowflake.Node to abstract dependency
type Node struct {
	*snowflake.Node
}

func NewNode(id NodeID) (*Node, error) {
	node, err := snowflake.NewNode(int64(id))
	if err != nil {
		return nil, err
	}
	return &Node{node}, nil
}

// NewID returns a new snowflake ID in its decimal string form.
func (n *Node) NewID() string {
	return n.Generate().String()
}

// ParseID validates a decimal snowflake ID string.
func ParseID(id string) (int64, error) {
	sid, err := snowflake.ParseString(id)
	if err != nil {
		return 0, err
	}
	return sid.Int64(), nil
}
