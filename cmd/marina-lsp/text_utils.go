package main

func getLine(content string, lineIndex int) string {
	start := 0
	currentLine := 0

	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if currentLine == lineIndex {
				return trimCR(content[start:i])
			}
			start = i + 1
			currentLine++
		}
	}

	if currentLine == lineIndex {
		return content[start:]
	}
	return ""
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

// getWordAtPosition returns the identifier under the cursor. A dotted
// reference such as math.max is returned whole.
func getWordAtPosition(content string, line, char int) string {
	lineStr := getLine(content, line)
	if char < 0 || char > len(lineStr) {
		return ""
	}
	if char == len(lineStr) || !isIdentifierChar(lineStr[char]) {
		// Cursor just past the word
		if char == 0 || !isIdentifierChar(lineStr[char-1]) {
			return ""
		}
		char--
	}

	start := char
	for start > 0 && (isIdentifierChar(lineStr[start-1]) || lineStr[start-1] == '.') {
		start--
	}
	end := char
	for end < len(lineStr) && (isIdentifierChar(lineStr[end]) || lineStr[end] == '.') {
		end++
	}
	return lineStr[start:end]
}

// getPrefix returns the text before the cursor that completion should
// extend, including a module qualifier.
func getPrefix(content string, line, char int) string {
	lineStr := getLine(content, line)
	if char > len(lineStr) {
		char = len(lineStr)
	}
	if char < 0 {
		return ""
	}
	start := char
	for start > 0 && (isIdentifierChar(lineStr[start-1]) || lineStr[start-1] == '.') {
		start--
	}
	return lineStr[start:char]
}

func isIdentifierChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
