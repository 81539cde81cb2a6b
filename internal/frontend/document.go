package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a rule document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// ParseFormat validates an explicit format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatCUE:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown input format %q: must be yaml or cue", s)
}

// FormatFor picks the format from a file name. "-" reads YAML.
func FormatFor(path string) (Format, error) {
	if path == "-" {
		return FormatYAML, nil
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("cannot tell the format of %s: use .yaml, .yml or .cue", path)
}

// Position locates a node in its source document.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

func posOf(p token.Pos) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{File: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// Node is one parse-tree node. Leaves are tokens: numbers, enum tags and
// constructs written without children.
type Node struct {
	Name string
	Args []*Node
	Leaf bool
	Pos  Position
}

func (n *Node) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name + "(" + strings.Join(parts, ", ") + ")"
}

// RuleSource is one rule of a document.
type RuleSource struct {
	Name string
	Text string
	Tree *Node
	Pos  Position
}

// Document is a parsed rule document.
type Document struct {
	File  string
	Rules []RuleSource
}

// CompileError is a malformed document or parse tree.
type CompileError struct {
	Field   string
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsCompileError extracts a CompileError from err's chain.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	ok := errors.As(err, &ce)
	return ce, ok
}

// LoadFile reads and parses path. An empty format is picked from the
// extension.
func LoadFile(path string, f Format) (*Document, error) {
	if f == "" {
		var err error
		if f, err = FormatFor(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(path, data, f)
}

// LoadReader parses a document read from r, named name in positions.
func LoadReader(name string, r io.Reader, f Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Load(name, data, f)
}

// Load parses data in format f.
func Load(name string, data []byte, f Format) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch f {
	case FormatYAML:
		doc, err = loadYAML(name, data)
	case FormatCUE:
		doc, err = loadCUE(name, data)
	default:
		return nil, fmt.Errorf("unknown input format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return doc, doc.check()
}

// check names anonymous rules and rejects duplicates.
func (d *Document) check() error {
	if len(d.Rules) == 0 {
		return &CompileError{Field: "rules", Message: "document defines no rules", Pos: Position{File: d.File}}
	}
	seen := make(map[string]bool, len(d.Rules))
	for i := range d.Rules {
		r := &d.Rules[i]
		r.Name = norm.NFC.String(strings.TrimSpace(r.Name))
		if r.Name == "" {
			r.Name = "rule_" + strconv.Itoa(i)
		}
		if seen[r.Name] {
			return &CompileError{Field: "rules." + r.Name, Message: "rule name is used twice", Pos: r.Pos}
		}
		seen[r.Name] = true
		if r.Tree == nil {
			return &CompileError{Field: "rules." + r.Name, Message: "rule has no tree", Pos: r.Pos}
		}
	}
	return nil
}

type yamlRule struct {
	Name string    `yaml:"name"`
	Text string    `yaml:"text"`
	Tree yaml.Node `yaml:"tree"`
}

type yamlDocument struct {
	Rules []yamlRule `yaml:"rules"`
}

func loadYAML(name string, data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var raw yamlDocument
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "yaml", Message: "empty document", Pos: Position{File: name}}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error(), Pos: Position{File: name}}
	}
	doc := &Document{File: name}
	for _, r := range raw.Rules {
		src := RuleSource{Name: r.Name, Text: r.Text, Pos: Position{File: name, Line: r.Tree.Line, Column: r.Tree.Column}}
		if !r.Tree.IsZero() {
			tree, err := yamlNode(name, &r.Tree)
			if err != nil {
				return nil, err
			}
			src.Tree = tree
		}
		doc.Rules = append(doc.Rules, src)
	}
	return doc, nil
}

func yamlNode(file string, y *yaml.Node) (*Node, error) {
	pos := Position{File: file, Line: y.Line, Column: y.Column}
	switch y.Kind {
	case yaml.AliasNode:
		return yamlNode(file, y.Alias)
	case yaml.ScalarNode:
		return &Node{Name: norm.NFC.String(y.Value), Leaf: true, Pos: pos}, nil
	case yaml.MappingNode:
		if len(y.Content) != 2 {
			return nil, &CompileError{Field: "tree", Message: "a construct is a map with exactly one key", Pos: pos}
		}
		key, val := y.Content[0], y.Content[1]
		n := &Node{Name: norm.NFC.String(key.Value), Pos: Position{File: file, Line: key.Line, Column: key.Column}}
		var children []*yaml.Node
		switch {
		case val.Kind == yaml.SequenceNode:
			children = val.Content
		case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
		default:
			children = []*yaml.Node{val}
		}
		for _, c := range children {
			arg, err := yamlNode(file, c)
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, arg)
		}
		return n, nil
	}
	return nil, &CompileError{Field: "tree", Message: "a list is only allowed as the children of a construct", Pos: pos}
}

func loadCUE(name string, data []byte) (*Document, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	rules := v.LookupPath(cue.ParsePath("rules"))
	if !rules.Exists() {
		return nil, &CompileError{Field: "rules", Message: "rules is required", Pos: posOf(v.Pos())}
	}
	iter, err := rules.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	doc := &Document{File: name}
	for iter.Next() {
		rv := iter.Value()
		src := RuleSource{Pos: posOf(rv.Pos())}
		if nv := rv.LookupPath(cue.ParsePath("name")); nv.Exists() {
			if src.Name, err = nv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if tv := rv.LookupPath(cue.ParsePath("text")); tv.Exists() {
			if src.Text, err = tv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if tree := rv.LookupPath(cue.ParsePath("tree")); tree.Exists() {
			if src.Tree, err = cueNode(tree); err != nil {
				return nil, err
			}
		}
		doc.Rules = append(doc.Rules, src)
	}
	return doc, nil
}

func cueNode(v cue.Value) (*Node, error) {
	pos := posOf(v.Pos())
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &Node{Name: norm.NFC.String(s), Leaf: true, Pos: pos}, nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &Node{Name: strconv.FormatInt(i, 10), Leaf: true, Pos: pos}, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var n *Node
		for iter.Next() {
			if n != nil {
				return nil, &CompileError{Field: "tree", Message: "a construct is a struct with exactly one field", Pos: pos}
			}
			n = &Node{Name: norm.NFC.String(iter.Label()), Pos: posOf(iter.Value().Pos())}
			if n.Args, err = cueChildren(iter.Value()); err != nil {
				return nil, err
			}
		}
		if n == nil {
			return nil, &CompileError{Field: "tree", Message: "empty construct", Pos: pos}
		}
		return n, nil
	}
	return nil, &CompileError{Field: "tree", Message: fmt.Sprintf("unexpected %s in parse tree", v.Kind()), Pos: pos}
}

func cueChildren(v cue.Value) ([]*Node, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var out []*Node
		for iter.Next() {
			n, err := cueNode(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	n, err := cueNode(v)
	if err != nil {
		return nil, err
	}
	return []*Node{n}, nil
}

// formatCUEError keeps the first CUE error with a position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: posOf(positions[0])}
	}
	return err
}
