// Package prompts holds the prompt text sent to the report LLM.
package prompts

import (
	"strings"
)

// EngineeringBriefSystemPrompt frames the model as a data architect and fixes
// the section layout of the brief.
const EngineeringBriefSystemPrompt = `You are a senior data architect. Given database schema + light profiling, produce a crisp engineering brief.
Constraints:
- Be specific and practical. Avoid generic platitudes.
- Prefer bullet points and short, labeled sections.
- If you are unsure, state assumptions explicitly.
- Flag potential PII/sensitive columns.
- Propose 5-10 concrete analytical queries / KPIs.

Output sections (exactly in this order):
1) Executive Summary (3-6 bullets)
2) Entities & Relationships (with cardinality and notes)
3) Data Dictionary (per table -> per column: description, datatype, nullability, semantics; mark PII if suspected)
4) Quality & Anomalies (nulls, uniqueness risks, skew, outliers, temporal coverage)
5) Recommended Indexes & Constraints
6) Example Business Questions (queries/KPIs)
7) Next Steps (gaps, further profiling to run)
`

// BriefSections are the headings the system prompt asks for, in order.
var BriefSections = []string{
	"Executive Summary",
	"Entities & Relationships",
	"Data Dictionary",
	"Quality & Anomalies",
	"Recommended Indexes & Constraints",
	"Example Business Questions",
	"Next Steps",
}

// BuildEngineeringBriefPrompt embeds the metadata document in the user prompt.
// When samples were stripped before sending, the guidance says so.
func BuildEngineeringBriefPrompt(metadataJSON []byte, samplesIncluded bool) string {
	var sb strings.Builder

	sb.WriteString("Context (JSON):\n```\n")
	sb.Write(metadataJSON)
	if len(metadataJSON) > 0 && metadataJSON[len(metadataJSON)-1] != '\n' {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")

	sb.WriteString("Guidance:\n")
	sb.WriteString("- The JSON includes: tables -> columns (types, PK/FK, null counts, distincts, top values, sample values), table row counts, and FK edges.\n")
	sb.WriteString("- Values may be masked as [REDACTED]; treat masked columns as sensitive.\n")
	sb.WriteString("- stat_failures lists statistics that could not be computed; a null field there means \"not measured\", not zero.\n")
	if samplesIncluded {
		sb.WriteString("- If samples are sparse, rely on names and types carefully; use hedged language (\"likely\", \"appears to\").\n")
	} else {
		sb.WriteString("- Sample values were withheld; rely on names, types and top values, and use hedged language (\"likely\", \"appears to\").\n")
	}
	sb.WriteString("- Prefer tables/columns in priority order by impact (fact tables, then dimensions).\n")
	sb.WriteString("- Keep the final brief under ~1200 words.\n")

	return sb.String()
}
