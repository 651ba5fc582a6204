// Package vfs implements the per-device simulated file system a player
// navigates with shell commands.
package vfs

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound      = errors.New("no such file or directory")
	ErrNotADirectory = errors.New("not a directory")
	ErrNotAFile      = errors.New("not a file")
	ErrEncrypted     = errors.New("file is encrypted")
	ErrNotEncrypted  = errors.New("file is not encrypted")
)

type Entry struct {
	Name string
	Type NodeType
}

// Lookup walks an absolute path. Passing through a file as an intermediate
// segment yields ErrNotADirectory.
func Lookup(root *Node, path string) (*Node, error) {
	if root == nil {
		return nil, ErrNotFound
	}
	node := root
	for _, segment := range Split(path) {
		if !node.IsDir() {
			return nil, ErrNotADirectory
		}
		child, ok := node.Children[segment]
		if !ok {
			return nil, ErrNotFound
		}
		node = child
	}
	return node, nil
}

func GetNode(path string, root *Node) *Node {
	node, err := Lookup(root, path)
	if err != nil {
		return nil
	}
	return node
}

// List returns the entries of a directory sorted by name.
func List(path string, root *Node) ([]Entry, error) {
	node, err := Lookup(root, path)
	if err != nil {
		return nil, err
	}
	if !node.IsDir() {
		return nil, ErrNotADirectory
	}

	entries := make([]Entry, 0, len(node.Children))
	for name, child := range node.Children {
		entries = append(entries, Entry{Name: name, Type: child.Type})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func ReadFile(path string, root *Node) (string, error) {
	node, err := Lookup(root, path)
	if err != nil {
		return "", err
	}
	if !node.IsFile() {
		return "", ErrNotAFile
	}
	if node.IsEncrypted {
		return "", ErrEncrypted
	}
	return node.Content, nil
}

// Decrypt returns a new root in which the file at path is decrypted. Nodes
// along the path are copied; the input tree is left untouched. Password
// checks belong to the caller.
func Decrypt(root *Node, path string) (*Node, error) {
	node, err := Lookup(root, path)
	if err != nil {
		return nil, err
	}
	if !node.IsFile() {
		return nil, ErrNotAFile
	}
	if !node.IsEncrypted {
		return nil, ErrNotEncrypted
	}

	return replace(root, Split(path), func(file *Node) {
		file.IsEncrypted = false
		file.Content = file.DecryptedContent
	})
}

func replace(node *Node, segments []string, mutate func(*Node)) (*Node, error) {
	out := *node
	if len(segments) == 0 {
		mutate(&out)
		return &out, nil
	}

	child, ok := node.Children[segments[0]]
	if !ok {
		return nil, fmt.Errorf("%s: %w", segments[0], ErrNotFound)
	}
	updated, err := replace(child, segments[1:], mutate)
	if err != nil {
		return nil, err
	}

	out.Children = make(map[string]*Node, len(node.Children))
	for name, c := range node.Children {
		out.Children[name] = c
	}
	out.Children[segments[0]] = updated
	return &out, nil
}
