package model

import "strings"

// SplitChunks splits content into chunks of at most chunkSize characters,
// each carrying bleed characters of overlap with the end of the previous
// chunk. Paragraph boundaries are preferred, then line boundaries, then
// word boundaries; a single oversized token falls back to a hard cut.
func SplitChunks(content string, chunkSize, bleed int) []string {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if bleed < 0 || bleed >= chunkSize {
		bleed = 0
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= chunkSize {
		return []string{content}
	}

	var chunks []string
	var carry string
	for _, para := range splitWithBudget(content, chunkSize) {
		chunk := para
		if carry != "" {
			chunk = carry + " " + para
			if len(chunk) > chunkSize+bleed {
				chunk = chunk[:chunkSize+bleed]
			}
		}
		chunks = append(chunks, chunk)
		if bleed > 0 && len(para) > bleed {
			carry = para[len(para)-bleed:]
		} else {
			carry = ""
		}
	}
	return chunks
}

// splitWithBudget cuts content into pieces no longer than budget, trying
// separators from coarsest to finest.
func splitWithBudget(content string, budget int) []string {
	var out []string
	for _, piece := range splitOn(content, "\n\n", budget) {
		if len(piece) <= budget {
			out = append(out, piece)
			continue
		}
		for _, line := range splitOn(piece, "\n", budget) {
			if len(line) <= budget {
				out = append(out, line)
				continue
			}
			out = append(out, splitWords(line, budget)...)
		}
	}
	return out
}

// splitOn greedily packs sep-delimited segments into budget-sized pieces.
func splitOn(content, sep string, budget int) []string {
	segments := strings.Split(content, sep)
	var out []string
	var current string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		switch {
		case current == "":
			current = seg
		case len(current)+len(sep)+len(seg) <= budget:
			current += sep + seg
		default:
			out = append(out, current)
			current = seg
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

// splitWords packs words into budget-sized pieces, hard-cutting any single
// word longer than the budget.
func splitWords(line string, budget int) []string {
	var out []string
	var current string
	for _, word := range strings.Fields(line) {
		for len(word) > budget {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			out = append(out, word[:budget])
			word = word[budget:]
		}
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= budget:
			current += " " + word
		default:
			out = append(out, current)
			current = word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}
