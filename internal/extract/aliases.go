package extract

// FieldAliases are the JSON keys that hold prose in structured tree payloads,
// consulted in order for every object. Append to support a new source.
var FieldAliases = []string{"name", "nm", "note", "no", "content", "ct", "title", "text"}

// PatternKeys are the keys whose quoted string values the pattern strategy
// harvests from inline scripts. Short keys come from compact client payloads.
var PatternKeys = []string{"nm", "no", "ct", "name", "note", "content", "title", "text"}

func aliasesOr(custom []string, def []string) []string {
	if len(custom) > 0 {
		return custom
	}
	return def
}
