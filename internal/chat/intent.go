package chat

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Intent is the classified purpose of a chat query.
type Intent int

const (
	IntentUnrecognized Intent = iota
	IntentClear
	IntentHelp
	IntentRowCount
	IntentColumnList
	IntentSummary
	IntentTopAuthors
	IntentTopInstitutions
	IntentListTitles
)

var intentNames = map[Intent]string{
	IntentUnrecognized:    "unrecognized",
	IntentClear:           "clear",
	IntentHelp:            "help",
	IntentRowCount:        "row_count",
	IntentColumnList:      "column_list",
	IntentSummary:         "summary",
	IntentTopAuthors:      "top_authors",
	IntentTopInstitutions: "top_institutions",
	IntentListTitles:      "list_titles",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "intent(" + strconv.Itoa(int(i)) + ")"
}

// MarshalText lets intents appear by name in JSON and logs.
func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

const defaultTopN = 10

var (
	topNRe       = regexp.MustCompile(`(?i)top\s+(\d+)`)
	anyNumberRe  = regexp.MustCompile(`\b(\d+)\b`)
	mentioningRe = regexp.MustCompile(`(?i)mentioning\s+([\p{L}\p{N}\- ]+)`)
)

// ExtractTopN reads N from "top <digits>", else the first standalone number,
// else def. The result is at least 1.
func ExtractTopN(query string, def int) int {
	if def < 1 {
		def = defaultTopN
	}
	if m := topNRe.FindStringSubmatch(query); m != nil {
		return atLeastOne(m[1])
	}
	if m := anyNumberRe.FindStringSubmatch(query); m != nil {
		return atLeastOne(m[1])
	}
	return def
}

func atLeastOne(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only overflow can fail on a digit run
		n = math.MaxInt
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ExtractMentioning returns the phrase after "mentioning", or "".
func ExtractMentioning(query string) string {
	m := mentioningRe.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func containsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
