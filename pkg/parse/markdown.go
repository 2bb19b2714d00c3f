package parse

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type CodeBlock struct {
	Code     string
	Language string
}

// ExtractCodeBlocks returns the fenced code blocks of a markdown document in
// order. If language is non-empty, only blocks with that info string are kept.
func ExtractCodeBlocks(markdownText string, language string) ([]CodeBlock, error) {
	var blocks []CodeBlock
	source := []byte(markdownText)

	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	err := ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := string(cb.Language(source))
		if language != "" && !strings.EqualFold(lang, language) {
			return ast.WalkContinue, nil
		}

		var sb strings.Builder
		lines := cb.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			sb.Write(line.Value(source))
		}
		blocks = append(blocks, CodeBlock{
			Code:     sb.String(),
			Language: lang,
		})
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}
