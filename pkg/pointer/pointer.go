// Package pointer parses and encodes Git LFS pointer files.
//
// A pointer looks like:
//
//	version https://git-lfs.github.com/spec/v1
//	oid sha256:4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393
//	size 12345
//
// Keys after the version line are in strictly increasing order and every
// line, including the last, ends with a single newline.
package pointer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSize is the largest file considered as a pointer candidate.
// LFS pointers are small (typically < 200 bytes).
const MaxSize = 1024

// VersionLine is the exact first line of every pointer, newline included.
const VersionLine = "version https://git-lfs.github.com/spec/v1\n"

const oidHexLen = 64

// Algorithm names the hash used for the object id.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
)

// Supported reports whether objects hashed with a can be verified.
func (a Algorithm) Supported() bool {
	return a == SHA256
}

// KeyValue is an extra pointer key preserved as-is.
type KeyValue struct {
	Key   string
	Value string
}

// Pointer is a decoded LFS pointer.
type Pointer struct {
	Algorithm Algorithm
	OID       string
	Size      uint64
	Extra     []KeyValue
}

// Encode returns the canonical pointer text.
func (p *Pointer) Encode() []byte {
	lines := []KeyValue{
		{Key: "oid", Value: string(p.Algorithm) + ":" + p.OID},
		{Key: "size", Value: strconv.FormatUint(p.Size, 10)},
	}
	lines = append(lines, p.Extra...)
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Key < lines[j].Key
	})

	var buf bytes.Buffer
	buf.WriteString(VersionLine)
	for _, kv := range lines {
		fmt.Fprintf(&buf, "%s %s\n", kv.Key, kv.Value)
	}
	return buf.Bytes()
}

// Decode parses data as an LFS pointer.
//
// It returns (nil, nil) when data is not a pointer at all: too large, or not
// starting with VersionLine. It returns a *MalformedError when data starts
// like a pointer but breaks the format.
func Decode(data []byte) (*Pointer, error) {
	if len(data) > MaxSize || !bytes.HasPrefix(data, []byte(VersionLine)) {
		return nil, nil
	}
	if !utf8.Valid(data) {
		return nil, malformed(ReasonInvalidUTF8, "")
	}
	if data[len(data)-1] != '\n' {
		return nil, malformed(ReasonMissingNewline, "")
	}

	body := strings.TrimSuffix(string(data[len(VersionLine):]), "\n")
	if body == "" {
		return nil, malformed(ReasonMissingOID, "")
	}

	p := &Pointer{}
	var (
		prevKey           string
		haveOID, haveSize bool
	)
	for i, line := range strings.Split(body, "\n") {
		lineNo := i + 2
		key, value, ok := strings.Cut(line, " ")
		if !ok || !validKey(key) || value == "" {
			return nil, malformed(ReasonTrailingGarbage, fmt.Sprintf("line %d: %q", lineNo, line))
		}
		if key == "version" {
			return nil, malformed(ReasonVersion, fmt.Sprintf("line %d: %q", lineNo, line))
		}
		if prevKey != "" && key <= prevKey {
			return nil, malformed(ReasonKeyOrder, fmt.Sprintf("line %d: %q after %q", lineNo, key, prevKey))
		}
		prevKey = key

		switch key {
		case "oid":
			algo, hash, err := parseOID(value)
			if err != nil {
				return nil, err
			}
			p.Algorithm = algo
			p.OID = hash
			haveOID = true
		case "size":
			size, err := parseSize(value)
			if err != nil {
				return nil, err
			}
			p.Size = size
			haveSize = true
		default:
			p.Extra = append(p.Extra, KeyValue{Key: key, Value: value})
		}
	}

	if !haveOID {
		return nil, malformed(ReasonMissingOID, "")
	}
	if !haveSize {
		return nil, malformed(ReasonMissingSize, "")
	}
	return p, nil
}

func parseOID(value string) (Algorithm, string, error) {
	algo, hash, ok := strings.Cut(value, ":")
	if !ok {
		return "", "", malformed(ReasonInvalidOID, value)
	}
	if !Algorithm(algo).Supported() {
		return "", "", malformed(ReasonUnsupportedAlgorithm, algo)
	}
	if !ValidOID(hash) {
		return "", "", malformed(ReasonInvalidOID, hash)
	}
	return Algorithm(algo), hash, nil
}

func parseSize(value string) (uint64, error) {
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, malformed(ReasonInvalidSize, value)
		}
	}
	size, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, malformed(ReasonInvalidSize, value)
	}
	return size, nil
}

// ValidOID reports whether s is a 64 character lowercase hex sha256 digest.
func ValidOID(s string) bool {
	if len(s) != oidHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '.' || c == '-') {
			return false
		}
	}
	return true
}
