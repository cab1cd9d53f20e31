package comments

import "regexp"

// A mention is an @handle token at the start of the content or after
// whitespace. Handles are word characters only, which keeps email
// addresses from matching.
var mentionPattern = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9_]+)`)

// ExtractMentions returns the handles mentioned in content, deduplicated,
// in order of first appearance. Resolution to user ids happens elsewhere;
// handles that resolve to nobody are simply dropped there.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		h := m[1]
		if seen[h] {
			continue
		}
		seen[h] = true
		handles = append(handles, h)
	}
	return handles
}
