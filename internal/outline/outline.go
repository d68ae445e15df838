// Package outline lists Python definitions using the tree-sitter grammar.
//
// The outline is an independent parse of the buffer and serves as an oracle
// for the line classifier: every definition it finds on a line outside
// brackets and strings should also be a definition line for the fold pass.
package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pyfold/internal/fold"

	sitter "github.com/smacker/go-tree-sitter"
	python "github.com/smacker/go-tree-sitter/python"
)

var ErrParse = errors.New("outline: parse failed")

type Kind string

const (
	KindFunction      Kind = "def"
	KindAsyncFunction Kind = "async def"
	KindClass         Kind = "class"
)

// Definition lines are 0-based. StartLine is the line holding the def or
// class keyword, after any decorators.
type Definition struct {
	Kind      Kind
	Name      string
	StartLine int
	EndLine   int
	Depth     int
	Decorated bool
}

func (d Definition) String() string {
	return fmt.Sprintf("%s%s %s (%d-%d)", strings.Repeat("  ", d.Depth), d.Kind, d.Name, d.StartLine, d.EndLine)
}

// Parse returns definitions in source order.
func Parse(ctx context.Context, src []byte) ([]Definition, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if tree == nil {
		return nil, ErrParse
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrParse
	}

	var defs []Definition
	walk(root, src, 0, false, &defs)
	return defs, nil
}

func walk(node *sitter.Node, src []byte, depth int, decorated bool, out *[]Definition) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "decorated_definition":
			walk(child, src, depth, true, out)
		case "function_definition", "class_definition":
			*out = append(*out, definitionFor(child, src, depth, decorated))
			walk(child, src, depth+1, false, out)
		default:
			walk(child, src, depth, false, out)
		}
	}
}

func definitionFor(node *sitter.Node, src []byte, depth int, decorated bool) Definition {
	kind := KindClass
	if node.Type() == "function_definition" {
		kind = KindFunction
		if first := node.Child(0); first != nil && first.Type() == "async" {
			kind = KindAsyncFunction
		}
	}

	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = n.Content(src)
	}

	end := int(node.EndPoint().Row)
	if node.EndPoint().Column == 0 && end > int(node.StartPoint().Row) {
		end--
	}

	return Definition{
		Kind:      kind,
		Name:      name,
		StartLine: int(node.StartPoint().Row),
		EndLine:   end,
		Depth:     depth,
		Decorated: decorated,
	}
}

// CrossCheck compares the outline with the classifier's view of the same
// buffer.
type CrossCheck struct {
	// Missed lists definitions whose start line the classifier did not mark.
	Missed []Definition
	// Extra lists lines the classifier marked that start no definition.
	Extra []int
}

func (c CrossCheck) OK() bool {
	return len(c.Missed) == 0 && len(c.Extra) == 0
}

func Compare(defs []Definition, facts []fold.LineFacts) CrossCheck {
	var check CrossCheck
	starts := make(map[int]bool, len(defs))
	for _, def := range defs {
		starts[def.StartLine] = true
		if def.StartLine >= len(facts) || !facts[def.StartLine].BeginsDefinition {
			check.Missed = append(check.Missed, def)
		}
	}
	for i, f := range facts {
		if f.BeginsDefinition && !starts[i] {
			check.Extra = append(check.Extra, i)
		}
	}
	return check
}
