package build

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	buildIDPrefixLen = 8
	buildIDSuffixLen = 6
	// 36^6
	suffixSpace = 2176782336
)

// NewBuildID returns build-{first 8 of templateID}-{epoch millis}-{6 base36}.
func NewBuildID(templateID string, now time.Time) (string, error) {
	prefix := templateID
	if len(prefix) > buildIDPrefixLen {
		prefix = prefix[:buildIDPrefixLen]
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	n := binary.BigEndian.Uint64(b[:]) % suffixSpace
	suffix := strconv.FormatUint(n, 36)
	suffix = strings.Repeat("0", buildIDSuffixLen-len(suffix)) + suffix
	return fmt.Sprintf("build-%s-%d-%s", prefix, now.UnixMilli(), suffix), nil
}
