// Package htmlutils cleans markup out of headline text and prepares plain
// text for Telegram HTML messages.
package htmlutils

import (
	"html"
	"io"
	"strings"
	"unicode/utf16"

	nethtml "golang.org/x/net/html"
)

// TelegramMessageLimit is the maximum message length in UTF-16 code units.
const TelegramMessageLimit = 4096

const ellipsis = "…"

// utf16Len returns the number of UTF-16 code units needed to encode the string.
// Telegram counts message length in UTF-16 code units, not Unicode code points.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice returns the longest prefix of s that fits within maxUnits UTF-16 code units.
func utf16Slice(s string, maxUnits int) string {
	units := 0

	for i, r := range s {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return s[:i]
		}

		units += runeUnits
	}

	return s
}

// StripTags removes all markup from text and returns the decoded, whitespace
// collapsed content. Script and style bodies are dropped.
func StripTags(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return CollapseWhitespace(text)
	}

	var sb strings.Builder

	z := nethtml.NewTokenizer(strings.NewReader(text))
	skip := 0

	for {
		tt := z.Next()

		switch tt {
		case nethtml.ErrorToken:
			if z.Err() != io.EOF {
				return CollapseWhitespace(html.UnescapeString(text))
			}

			return CollapseWhitespace(sb.String())
		case nethtml.StartTagToken:
			if isSkippedTag(z) {
				skip++
			}

			sb.WriteByte(' ')
		case nethtml.EndTagToken:
			if isSkippedTag(z) && skip > 0 {
				skip--
			}

			sb.WriteByte(' ')
		case nethtml.SelfClosingTagToken:
			sb.WriteByte(' ')
		case nethtml.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case nethtml.CommentToken, nethtml.DoctypeToken:
		}
	}
}

func isSkippedTag(z *nethtml.Tokenizer) bool {
	name, _ := z.TagName()
	tag := string(name)

	return tag == "script" || tag == "style"
}

// CollapseWhitespace trims text and folds every whitespace run into one space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Escape escapes text for Telegram's HTML parse mode.
func Escape(text string) string {
	return html.EscapeString(text)
}

// TruncateForTelegram shortens a message so it fits in a single Telegram
// message, marking the cut with an ellipsis.
func TruncateForTelegram(text string) string {
	if utf16Len(text) <= TelegramMessageLimit {
		return text
	}

	return utf16Slice(text, TelegramMessageLimit-utf16Len(ellipsis)) + ellipsis
}
