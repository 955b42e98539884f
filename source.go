// source.go
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// lexerFor picks a chroma lexer by file name. pprof profiles mostly come
// from Go programs, so Go is the fallback.
func lexerFor(filePath string) string {
	if l := lexers.Match(filePath); l != nil {
		return l.Config().Name
	}
	return "go"
}

// getHighlightedSource reads the file behind a node, highlights it and marks
// the node's line with an arrow.
func getHighlightedSource(node *ProfileNode) string {
	filePath := node.FileName()
	if filePath == "" {
		return fmt.Sprintf("No source file available for %s.", node.Name())
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Sprintf("Error reading file %s:\n%v", filePath, err)
	}

	var highlighted bytes.Buffer
	err = quick.Highlight(&highlighted, string(content), lexerFor(filePath), "terminal256", "monokai")
	if err != nil {
		// Plain text is better than nothing.
		highlighted.Reset()
		highlighted.Write(content)
	}

	lines := strings.Split(highlighted.String(), "\n")
	var result strings.Builder
	for i, line := range lines {
		lineNumber := i + 1
		lineHeader := fmt.Sprintf("%4d | ", lineNumber)
		if lineNumber == node.Line() {
			lineHeader = "  -> | "
		}
		result.WriteString(lineHeader + line + "\n")
	}
	return result.String()
}
