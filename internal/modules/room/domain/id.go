package domain

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	// Single-process deployment, so a fixed node id is fine.
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// NewID generates a process-unique id for bets and wagers
func NewID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}
