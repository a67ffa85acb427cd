package drive

import (
	"sort"

	"drive-go/internal/database/queries"
)

// TreeNode is one folder of an assembled tree with its files and subfolders.
type TreeNode struct {
	ID       int64
	Name     string
	Depth    int64
	Files    []queries.File
	Children []*TreeNode
}

// AssembleTree builds a rooted tree from a descendant listing and the files
// stored in it. The folder at depth 0 is the root; nil is returned when no
// such folder is present. Files pointing at a folder outside the listing are
// dropped, as are folders whose parent is missing. Children and files are
// ordered by name, then id.
func AssembleTree(folders []queries.ClosureRow, files []queries.File) *TreeNode {
	nodes := make(map[int64]*TreeNode, len(folders))
	var root *TreeNode
	for _, f := range folders {
		n := &TreeNode{ID: f.FolderID, Name: f.Name, Depth: f.Depth}
		nodes[f.FolderID] = n
		if f.Depth == 0 && root == nil {
			root = n
		}
	}
	if root == nil {
		return nil
	}

	for _, file := range files {
		if !file.FolderID.Valid {
			continue
		}
		if n, ok := nodes[file.FolderID.Int64]; ok {
			n.Files = append(n.Files, file)
		}
	}

	for _, f := range folders {
		n := nodes[f.FolderID]
		if n == root || !f.ParentID.Valid {
			continue
		}
		if parent, ok := nodes[f.ParentID.Int64]; ok && parent != n {
			parent.Children = append(parent.Children, n)
		}
	}

	for _, n := range nodes {
		sort.Slice(n.Children, func(i, j int) bool {
			a, b := n.Children[i], n.Children[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
		sort.Slice(n.Files, func(i, j int) bool {
			a, b := n.Files[i], n.Files[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		})
	}

	return root
}

// Walk visits n and its descendants depth-first, children in order.
func (n *TreeNode) Walk(fn func(node *TreeNode)) {
	stack := []*TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}
