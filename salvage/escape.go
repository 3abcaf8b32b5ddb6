package salvage

// escapeInvalidBackslashes doubles backslashes inside JSON string literals
// that do not begin a valid JSON escape sequence. Generator backends emit
// payloads like {"code": "path\to\file"} which json.Unmarshal rejects
// outright; doubling the offending backslash makes the document parseable
// while leaving valid escapes (and \uXXXX sequences) untouched.
//
// The scan only rewrites text inside string literals. Structural characters
// outside strings pass through unchanged.
func escapeInvalidBackslashes(text string) string {
	var out []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if escaped {
			switch ch {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				// Valid escape; emit the pair as-is. \u is kept verbatim
				// even without validating the hex digits that follow.
				out = append(out, '\\', ch)
			default:
				// Invalid escape; double the backslash so the character
				// survives decoding literally.
				out = append(out, '\\', '\\', ch)
			}
			escaped = false
			continue
		}

		if inString && ch == '\\' {
			escaped = true
			continue
		}

		if ch == '"' {
			inString = !inString
		}
		out = append(out, ch)
	}

	// Trailing lone backslash at end of input.
	if escaped {
		out = append(out, '\\', '\\')
	}
	return string(out)
}
