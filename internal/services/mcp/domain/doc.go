// Package domain translates MCP tool calls into rolls, analyses and
// explanations over the check engine.
//
// Every tool accepts either the name of a check or pool from the loaded
// rulebook or an inline definition, validates it through the rulebook
// builders, and answers with a structured result. Validation failures are
// returned as tool errors carrying the localized user message.
package domain
