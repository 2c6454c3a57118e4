package mcpserver

import (
	"strings"
)

// conventionsURI is the resource describing the vault's metadata conventions.
const conventionsURI = "vaultkit://conventions"

// Conventions renders the metadata conventions the pipeline maintains, with
// the configured tag categories filled in.
func Conventions(categories []string) string {
	return `# Vault Metadata Conventions

Every note starts with a YAML metadata block:

` + "```" + `markdown
---
tags:
  - ai/agents
  - type/note
type: note
created: 2024-03-01
modified: 2024-03-01
status: active
related:
  - "[[Other Note]]"
aliases: []
---
` + "```" + `

## Rules

1. Tags are lowercase and hierarchical, segments separated by "/".
   Legacy spellings are rewritten to their canonical form (call
   normalize_tag to check one).
2. Top-level tag categories: ` + strings.Join(categories, ", ") + `.
3. Daily notes are tagged daily/YYYY/MM.
4. "related" holds [[wikilinks]], optionally followed by " # comment".
5. Notes link to each other with [[Title]] or [[path/to/note]]; a note with
   no links in either direction is an orphan (see find_orphans).
6. Maps of content live in the MOC directory as "MOC - <Title>.md".
`
}
