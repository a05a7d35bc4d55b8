package api

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// LeetCode fetches the linked problem's content through the backend proxy
// and flattens the HTML body into plain text for terminal display.
func (c *Client) LeetCode(ctx context.Context, slug string) (LeetCodeContent, error) {
	var out LeetCodeContent
	if err := c.get(ctx, "/api/v1/leetcode/"+url.PathEscape(slug), nil, &out); err != nil {
		return LeetCodeContent{}, err
	}
	if out.URL == "" && out.Slug != "" {
		out.URL = "https://leetcode.com/problems/" + out.Slug + "/"
	}
	out.Text = strings.TrimSpace(htmlToText(out.ContentHTML))
	return out, nil
}

func htmlToText(input string) string {
	if input == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return input
	}

	var builder strings.Builder
	extractText(node, &builder)
	return builder.String()
}

func extractText(node *html.Node, builder *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		builder.WriteString(node.Data)
	case html.ElementNode:
		switch node.Data {
		case "br", "p":
			builder.WriteRune('\n')
		case "li":
			builder.WriteString("\n- ")
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		extractText(child, builder)
	}

	if node.Type == html.ElementNode && node.Data == "p" {
		builder.WriteRune('\n')
	}
}
