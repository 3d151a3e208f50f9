package mcpserver

import "github.com/starford/lumina/internal/report"

// ReportFormatURI is the resource describing summaries and importable entries.
const ReportFormatURI = "lumina://report-format"

// ReportFormat describes the summary structure the AI service is asked for
// and the Markdown entry format accepted by import_entries.
var ReportFormat = `# Lumina Report Format

## Summaries

Summaries are generated from the work-log entries dated within an inclusive
date range. Without a template the following instructions apply:

` + report.DefaultInstructions + `

A template replaces these instructions with its own structure text.

` + report.OutputContract + `

The ` + "`fullMarkdown`" + ` field is stored as the summary's raw Markdown and is the
document returned by ` + "`read_summary`" + ` and the Markdown export.

## Entries (import format)

` + "```" + `markdown
---
date: 2025-01-20            # REQUIRED for a dated entry (YYYY-MM-DD); defaults to today
title: Weekly standup       # OPTIONAL; falls back to the first "# " heading
category: Engineering       # OPTIONAL; used only if classification fails
tags:                       # OPTIONAL
  - standup
---

Body text in Markdown. Inline #tags are collected too.

- [x] a completed task
- [ ] an open task
` + "```" + `

Checklist lines become tasks and are removed from the body. A document made
of "## YYYY-MM-DD | Title" sections (the Markdown export) imports one entry
per section.
`
