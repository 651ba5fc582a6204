package vfs

import "sort"

type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

// Template is the plain-data description of a device tree as authored in
// story content. It is never mutated at runtime.
type Template struct {
	Type             NodeType            `yaml:"type" json:"type"`
	Content          string              `yaml:"content,omitempty" json:"content,omitempty"`
	IsEncrypted      bool                `yaml:"encrypted,omitempty" json:"encrypted,omitempty"`
	Password         string              `yaml:"password,omitempty" json:"password,omitempty"`
	DecryptedContent string              `yaml:"decrypted_content,omitempty" json:"decrypted_content,omitempty"`
	CanAnalyze       bool                `yaml:"can_analyze,omitempty" json:"can_analyze,omitempty"`
	AnalysisResult   string              `yaml:"analysis_result,omitempty" json:"analysis_result,omitempty"`
	Children         map[string]Template `yaml:"children,omitempty" json:"children,omitempty"`
}

// Node is a runtime file or directory owned by one player's state.
type Node struct {
	Type             NodeType         `json:"type"`
	Name             string           `json:"name"`
	Content          string           `json:"content,omitempty"`
	IsEncrypted      bool             `json:"isEncrypted,omitempty"`
	Password         string           `json:"password,omitempty"`
	DecryptedContent string           `json:"decryptedContent,omitempty"`
	CanAnalyze       bool             `json:"canAnalyze,omitempty"`
	AnalysisResult   string           `json:"analysisResult,omitempty"`
	Children         map[string]*Node `json:"children,omitempty"`
}

func (n *Node) IsDir() bool {
	return n != nil && n.Type == TypeDirectory
}

func (n *Node) IsFile() bool {
	return n != nil && n.Type == TypeFile
}

// Build turns a template into an independent runtime tree. A template with
// no type and children is treated as a directory, otherwise as a file.
func Build(tmpl Template) *Node {
	return build("", tmpl)
}

func build(name string, tmpl Template) *Node {
	nodeType := tmpl.Type
	if nodeType == "" {
		nodeType = TypeFile
		if tmpl.Children != nil {
			nodeType = TypeDirectory
		}
	}

	node := &Node{Type: nodeType, Name: name}
	if nodeType == TypeDirectory {
		node.Children = make(map[string]*Node, len(tmpl.Children))
		for childName, child := range tmpl.Children {
			node.Children[childName] = build(childName, child)
		}
		return node
	}

	node.Content = tmpl.Content
	node.IsEncrypted = tmpl.IsEncrypted
	node.Password = tmpl.Password
	node.DecryptedContent = tmpl.DecryptedContent
	node.CanAnalyze = tmpl.CanAnalyze
	node.AnalysisResult = tmpl.AnalysisResult
	return node
}

// Clone deep copies a tree.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Children != nil {
		out.Children = make(map[string]*Node, len(n.Children))
		for name, child := range n.Children {
			out.Children[name] = Clone(child)
		}
	}
	return &out
}

// Walk visits every file in the tree with its absolute path, in name order.
func Walk(root *Node, fn func(path string, node *Node)) {
	walk(root, Separator, fn)
}

func walk(node *Node, path string, fn func(string, *Node)) {
	if node == nil {
		return
	}
	fn(path, node)
	if !node.IsDir() {
		return
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		walk(node.Children[name], Join(path, name), fn)
	}
}
