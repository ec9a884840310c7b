// Package text provides the pure text utilities the dispatcher is built on:
// reply chunking, date extraction, and mood classification. Everything here
// is stateless and safe for concurrent use.
package text

import "strings"

// DefaultMaxLen is the default chunk size limit when the caller has no
// platform-specific limit to apply.
const DefaultMaxLen = 2000

const paragraphSep = "\n\n"

// Split breaks text into ordered chunks of at most max bytes so an oversized
// reply can be delivered as multiple platform messages.
//
// Paragraphs (blank-line separated) are greedily packed into chunks. A
// paragraph that alone exceeds max falls back to sentence-level packing on
// ". " boundaries, restoring the period when a chunk closes mid-paragraph.
// A single sentence longer than max is passed through whole, so that one
// chunk may exceed the limit; callers that need a hard guarantee must
// enforce it themselves.
//
// A non-positive max is a caller error and returns the input unsplit.
func Split(text string, max int) []string {
	if max <= 0 {
		return []string{text}
	}
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	cur := ""

	for _, paragraph := range strings.Split(text, paragraphSep) {
		candidate := paragraph
		if cur != "" {
			candidate = cur + paragraphSep + paragraph
		}
		if len(candidate) <= max {
			cur = candidate
			continue
		}

		if cur != "" {
			chunks = append(chunks, cur)
			cur = ""
		}

		if len(paragraph) <= max {
			cur = paragraph
			continue
		}

		// The paragraph alone overflows; pack its sentences instead.
		chunks, cur = packSentences(chunks, paragraph, max)
	}

	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// packSentences splits an oversized paragraph on ". " and greedily packs the
// sentences. Closed chunks get their trailing period back. The last
// accumulator is returned open so the caller can keep packing paragraphs
// onto it.
func packSentences(chunks []string, paragraph string, max int) ([]string, string) {
	sentences := strings.Split(paragraph, ". ")
	cur := ""

	for i, sentence := range sentences {
		last := i == len(sentences)-1

		candidate := sentence
		if cur != "" {
			candidate = cur + ". " + sentence
		}
		// Reserve one byte for the period restored on a chunk boundary.
		// The final sentence keeps its own punctuation and needs no reserve.
		if len(candidate)+1 <= max || (last && len(candidate) <= max) {
			cur = candidate
			continue
		}

		if cur != "" {
			chunks = append(chunks, cur+".")
			cur = ""
		}

		if len(sentence)+1 <= max || (last && len(sentence) <= max) {
			cur = sentence
			continue
		}

		// Sentence longer than the limit: emit it whole rather than
		// cutting mid-word.
		if last {
			cur = sentence
		} else {
			chunks = append(chunks, sentence+".")
		}
	}

	return chunks, cur
}
