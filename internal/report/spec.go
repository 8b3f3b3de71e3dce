package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// specVersion is the report view-spec version the W&B frontend expects.
const specVersion = 5

var (
	h1Pattern = regexp.MustCompile(`^# (.+)$`)
	h2Pattern = regexp.MustCompile(`^## (.+)$`)
	h3Pattern = regexp.MustCompile(`^### (.+)$`)
)

// block is one node in the report body tree.
type block struct {
	Type     string `json:"type"`
	Children []leaf `json:"children"`
	Level    int    `json:"level,omitempty"`
}

type leaf struct {
	Text string `json:"text"`
}

// BuildSpec converts a markdown body into a serialized report view spec.
// Headings up to level three become heading blocks, `[TOC]` becomes a table
// of contents, and consecutive non-empty lines group into one paragraph.
func BuildSpec(markdown string) (string, error) {
	blocks := parseBlocks(markdown)

	spec := map[string]any{
		"version": specVersion,
		"blocks":  blocks,
		"width":   "readable",
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encoding report spec: %w", err)
	}
	return string(data), nil
}

func parseBlocks(markdown string) []block {
	var blocks []block
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		blocks = append(blocks, block{
			Type:     "paragraph",
			Children: []leaf{{Text: strings.Join(paragraph, "\n")}},
		})
		paragraph = nil
	}

	for _, line := range strings.Split(strings.TrimSpace(markdown), "\n") {
		var heading string
		level := 0
		switch {
		case h3Pattern.MatchString(line):
			heading, level = h3Pattern.FindStringSubmatch(line)[1], 3
		case h2Pattern.MatchString(line):
			heading, level = h2Pattern.FindStringSubmatch(line)[1], 2
		case h1Pattern.MatchString(line):
			heading, level = h1Pattern.FindStringSubmatch(line)[1], 1
		}
		isTOC := strings.EqualFold(strings.TrimSpace(line), "[toc]")

		if level > 0 || isTOC {
			flush()
		}
		switch {
		case level > 0:
			blocks = append(blocks, block{
				Type:     "heading",
				Children: []leaf{{Text: heading}},
				Level:    level,
			})
		case isTOC:
			blocks = append(blocks, block{
				Type:     "table-of-contents",
				Children: []leaf{{Text: ""}},
			})
		case strings.TrimSpace(line) != "":
			paragraph = append(paragraph, line)
		}
	}
	flush()
	return blocks
}
