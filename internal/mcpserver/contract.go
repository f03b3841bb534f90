package mcpserver

// CardFormatContract describes the canonical markdown flashcard dialect that
// LLM consumers should follow when writing vault files.
const CardFormatContract = `# Ansuz Card Format Contract

Markdown files in the vault hold flashcard blocks in a line-oriented dialect.

## Structure

` + "```" + `markdown
# Free-form headers and commentary pass through untouched.

Q: What is the capital of France?
A: Paris
<!-- 1510862771508 -->

QA: dog
A: chien

` + "```" + `

## Rules

1. **` + "`" + `Q:` + "`" + ` starts a basic card block** (front→back only).
2. **` + "`" + `QA:` + "`" + ` starts a reversed card block** (front→back and back→front).
3. **` + "`" + `A:` + "`" + ` lines form the back** of the card.
4. **A blank line ends the block.** Everything between the question marker
   and the blank line belongs to the card; extra lines extend the front
   until the first ` + "`" + `A:` + "`" + `, then the back.
5. **The identifier comment** (` + "`" + `<!-- <13+ digits> -->` + "`" + `) pins the block to a
   collection note. Do not invent one: leave it out for new cards and the
   next import injects it.
6. **Markers start at column one.** An indented ` + "`" + `Q:` + "`" + ` is ordinary text.
7. **Deck routing by location.** Files in the vault root belong to deck
   ` + "`" + `Default` + "`" + `; files in a first-level folder belong to a deck named after
   that folder. Deeper folders are not scanned.
8. **Lines outside a block pass through untouched** — headers, commentary,
   anything.
`
