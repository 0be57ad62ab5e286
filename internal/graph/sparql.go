package graph

import (
	"fmt"
	"strings"
)

// literal escapes s for use inside a double-quoted SPARQL string literal
func literal(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// iri wraps s as a SPARQL IRI reference. It reports false when s contains
// characters that cannot appear in an IRIREF.
func iri(s string) (string, bool) {
	if s == "" || strings.ContainsAny(s, "<>\"{}|^`\\ \t\r\n") {
		return "", false
	}
	return "<" + s + ">", true
}

// AnswerQuery matches creative works whose headline contains query
func AnswerQuery(query string) string {
	return fmt.Sprintf(`SELECT DISTINCT ?headline ?articleBody ?ual WHERE { GRAPH ?ual { `+
		`?s a <http://schema.org/CreativeWork> . ?s <http://schema.org/headline> ?headline . `+
		`OPTIONAL { ?s <http://schema.org/articleBody> ?articleBody } `+
		`FILTER(CONTAINS(LCASE(?headline), LCASE(%s))) } } LIMIT 5`, literal(query))
}

// AssetInfoQuery selects the headline and modification time of one asset
func AssetInfoQuery(ual string) (string, bool) {
	ref, ok := iri(ual)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(`SELECT ?headline ?timestamp WHERE { GRAPH %s { `+
		`?s <http://schema.org/headline> ?headline . `+
		`OPTIONAL { ?s <http://schema.org/dateModified> ?timestamp } } } LIMIT 1`, ref), true
}

// LeaderboardQuery counts social media postings per asset graph
const LeaderboardQuery = `SELECT ?ual (COUNT(?s) as ?count) WHERE { GRAPH ?ual { ` +
	`?s a <http://schema.org/SocialMediaPosting> } } GROUP BY ?ual ORDER BY DESC(?count) LIMIT 50`

// VerifyURLQuery finds an asset that declares url as its schema:url
func VerifyURLQuery(url string) string {
	return fmt.Sprintf(`PREFIX schema: <http://schema.org/> SELECT ?ual WHERE { GRAPH ?ual { `+
		`?s schema:url %s . OPTIONAL { ?s schema:author ?author } } } LIMIT 1`, literal(url))
}
