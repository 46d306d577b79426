package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Attributes that carry structure rather than entity data. "type" and "nil"
// are the local names of xsi:type and xsi:nil after namespace stripping.
const (
	AttrType = "type"
	AttrRef  = "ref"
	AttrID   = "id"
	AttrNil  = "nil"
	AttrPos  = "pos"
)

// Node is one element of the parsed instance tree. The validator never
// mutates nodes; a document is read-only once built.
type Node struct {
	Tag      string
	Attr     map[string]string
	Text     string
	Line     int
	Parent   *Node
	Children []*Node
}

func (n *Node) ID() string   { return n.Attr[AttrID] }
func (n *Node) Ref() string  { return n.Attr[AttrRef] }
func (n *Node) Type() string { return n.Attr[AttrType] }

func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr[name]
	return ok
}

// IsRef reports whether the node is a by-reference occurrence.
func (n *Node) IsRef() bool { return n.HasAttr(AttrRef) }

// Find returns the first direct child with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Key returns the node's id, falling back to its ref. Used for diagnostics.
func (n *Node) Key() string {
	if id := n.ID(); id != "" {
		return id
	}
	return n.Ref()
}

// Duplicate is a document id used by more than one element.
type Duplicate struct {
	ID    string
	Nodes []*Node
}

// Document is a parsed, namespace-stripped instance tree with the id and
// inverse-reference indexes built once up front.
type Document struct {
	Root    *Node
	byID    map[string]*Node
	inbound map[string][]*Node
	dups    []Duplicate
}

// ByID returns the element carrying the given id. When an id is duplicated
// the first occurrence in document order wins, matching tree-scan behavior.
func (d *Document) ByID(id string) *Node {
	return d.byID[id]
}

// Inbound returns every element whose ref attribute points at the given id,
// in document order.
func (d *Document) Inbound(id string) []*Node {
	return d.inbound[id]
}

// Duplicates returns the ids used by more than one element, sorted by id.
func (d *Document) Duplicates() []Duplicate {
	return d.dups
}

// Parse reads an XML document, strips namespaces from element and attribute
// names, attaches source lines and builds the reference indexes.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *Node
	var current *Node
	offset := int64(0)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse error: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{
				Tag:    t.Name.Local,
				Attr:   make(map[string]string, len(t.Attr)),
				Line:   lineAt(data, offset),
				Parent: current,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				node.Attr[a.Name.Local] = a.Value
			}
			if current != nil {
				current.Children = append(current.Children, node)
			} else if root == nil {
				root = node
			}
			current = node
		case xml.EndElement:
			if current != nil {
				current = current.Parent
			}
		case xml.CharData:
			if current != nil {
				text := strings.TrimSpace(string(t))
				if text != "" {
					current.Text = text
				}
			}
		}
		offset = dec.InputOffset()
	}
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}

	doc := &Document{
		Root:    root,
		byID:    make(map[string]*Node),
		inbound: make(map[string][]*Node),
	}
	all := make(map[string][]*Node)
	doc.index(root, all)
	for id, nodes := range all {
		if len(nodes) > 1 {
			doc.dups = append(doc.dups, Duplicate{ID: id, Nodes: nodes})
		}
	}
	sort.Slice(doc.dups, func(i, j int) bool { return doc.dups[i].ID < doc.dups[j].ID })
	return doc, nil
}

func (d *Document) index(n *Node, all map[string][]*Node) {
	if id := n.ID(); id != "" {
		if _, ok := d.byID[id]; !ok {
			d.byID[id] = n
		}
		all[id] = append(all[id], n)
	}
	if ref := n.Ref(); ref != "" {
		d.inbound[ref] = append(d.inbound[ref], n)
	}
	for _, c := range n.Children {
		d.index(c, all)
	}
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte{'\n'}) + 1
}
