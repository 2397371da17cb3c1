package realtime

import "encoding/json"

// Centrifugo client protocol, JSON encoding. Commands carry an id; replies
// echo it. Asynchronous pushes and server pings have no id.

type command struct {
	ID        uint32            `json:"id"`
	Connect   *connectRequest   `json:"connect,omitempty"`
	Subscribe *subscribeRequest `json:"subscribe,omitempty"`
}

type connectRequest struct {
	Token string `json:"token,omitempty"`
	Name  string `json:"name,omitempty"`
}

type subscribeRequest struct {
	Channel string `json:"channel"`
	Token   string `json:"token,omitempty"`
}

type reply struct {
	ID        uint32          `json:"id,omitempty"`
	Error     *replyError     `json:"error,omitempty"`
	Connect   *connectResult  `json:"connect,omitempty"`
	Subscribe json.RawMessage `json:"subscribe,omitempty"`
	Push      *push           `json:"push,omitempty"`
}

// isPing reports whether r is the empty frame the server sends as a ping.
func (r *reply) isPing() bool {
	return r.ID == 0 && r.Error == nil && r.Connect == nil && r.Subscribe == nil && r.Push == nil
}

type replyError struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

type connectResult struct {
	Client string `json:"client"`
	Ping   uint32 `json:"ping"`
	Pong   bool   `json:"pong"`
}

type push struct {
	Channel string       `json:"channel"`
	Pub     *publication `json:"pub,omitempty"`
}

type publication struct {
	Data json.RawMessage `json:"data"`
}
