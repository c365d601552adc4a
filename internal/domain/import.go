package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ImportTimestampLayout is the header format of exported chat logs,
// e.g. "[2024-01-15 08:30:00.123]".
const ImportTimestampLayout = "2006-01-02 15:04:05.999999999"

var importHeader = regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+)\]`)

// ParseImport splits an exported log into memos. Each entry starts with a
// bracketed timestamp header and runs until the next header. Entries with an
// empty body are skipped. Timestamps are interpreted in loc (UTC when nil).
func ParseImport(content string, loc *time.Location) ([]*Memo, error) {
	if loc == nil {
		loc = time.UTC
	}

	matches := importHeader.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no timestamped entries found", ErrInvalidFormat)
	}

	memos := make([]*Memo, 0, len(matches))
	for i, m := range matches {
		bodyEnd := len(content)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := strings.TrimSpace(content[m[1]:bodyEnd])
		if body == "" {
			continue
		}

		stamp := content[m[2]:m[3]]
		createdAt, err := time.ParseInLocation(ImportTimestampLayout, stamp, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp %q: %v", ErrInvalidFormat, stamp, err)
		}

		memo, err := NewMemoAt(body, createdAt)
		if err != nil {
			return nil, err
		}
		memos = append(memos, memo)
	}

	return memos, nil
}
