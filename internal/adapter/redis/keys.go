package redis

import (
	"fmt"

	"github.com/user/site-mirror/pkg/utils"
)

// Keys are the Redis keys of one crawl frontier, namespaced by target URL.
type Keys struct {
	Visited string
	Queue   string
	Queued  string
}

// KeysFor derives the frontier keys for a target URL.
func KeysFor(targetURL string) Keys {
	prefix := fmt.Sprintf("mirror:%s:", utils.HashURL(targetURL))
	return Keys{
		Visited: prefix + "visited",
		Queue:   prefix + "queue",
		Queued:  prefix + "queued",
	}
}
