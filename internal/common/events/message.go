package events

import "encoding/json"

// Message is the wire form of a repository change, sent to websocket
// clients and over the Redis fan-out channel.
type Message struct {
	Source   string `json:"source"`
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Count    int    `json:"count"`
	At       string `json:"at"`
	Instance string `json:"instance,omitempty"`
}

func (m Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
