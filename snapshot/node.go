package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node is a path-compressed trie node.
type Node struct {
	K string   `json:"k"`
	I []string `json:"i,omitempty"`
	C Children `json:"c,omitempty"`
}

// Child is a node keyed by the first rune of its compound key.
type Child struct {
	Key  string
	Node *Node
}

// Children is an ordered set of child nodes. It encodes as a JSON object whose
// members keep their order.
type Children []Child

// MarshalJSON encodes the subtree rooted at n in a single pass.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	buf.WriteString(`{"k":`)
	if err := writeString(buf, n.K); err != nil {
		return err
	}
	if len(n.I) > 0 {
		buf.WriteString(`,"i":[`)
		for i, id := range n.I {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, id); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	if len(n.C) > 0 {
		buf.WriteString(`,"c":`)
		if err := n.C.writeJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// MarshalJSON writes the children as an object in slice order.
func (c Children) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Children) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, ch := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, ch.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := ch.Node.writeJSON(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalJSON reads an object, keeping members in document order.
func (c *Children) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("children: expected object, got %v", tok)
	}

	var out Children
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("children: expected key, got %v", tok)
		}
		var n Node
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("children: %q: %w", key, err)
		}
		out = append(out, Child{Key: key, Node: &n})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, ch := range n.C {
		total += ch.Node.Count()
	}
	return total
}
