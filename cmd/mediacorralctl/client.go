package main

import (
	"net/http"
	"time"

	"mediacorral/internal/coordinatorhttp"
	"mediacorral/internal/idx"
)

const defaultCoordinatorAddress = "http://127.0.0.1:7487"

// cliContext lazily builds the coordinatorhttp.Client shared by every
// daemon-talking subcommand, resolving the coordinator's address from the
// --addr persistent flag.
type cliContext struct {
	addr string
	c    *coordinatorhttp.Client
}

func (c *cliContext) client() *coordinatorhttp.Client {
	if c.c == nil {
		addr := c.addr
		if addr == "" {
			addr = defaultCoordinatorAddress
		}
		c.c = coordinatorhttp.NewClient(addr, &http.Client{Timeout: 30 * time.Second})
	}
	return c.c
}

func idxVideoType(v int) idx.VideoType {
	switch v {
	case 1:
		return idx.VideoTypeMovie
	case 2:
		return idx.VideoTypeSpecialFeature
	case 3:
		return idx.VideoTypeTvEpisode
	default:
		return idx.VideoTypeUntagged
	}
}
