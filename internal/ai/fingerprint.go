package ai

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fingerprintPayload is the stable serialization shape hashed into a cache
// key. Struct fields (not maps) keep the JSON field order deterministic.
type fingerprintPayload struct {
	Task    string        `json:"task"`
	Query   string        `json:"query,omitempty"`
	Client  *ClientRecord `json:"client,omitempty"`
	Options RouteOptions  `json:"options"`
}

// Fingerprint derives the deterministic cache key for a request. Identical
// semantic input with identical options always yields the same key; the key
// is opaque and used only for cache indexing.
func Fingerprint(task Task, input RouteInput, opts RouteOptions) string {
	payload := fingerprintPayload{
		Task:    task.String(),
		Query:   normalizeText(input.Query),
		Options: opts,
	}

	if input.Client != nil {
		c := *input.Client
		c.Name = normalizeText(c.Name)
		c.Notes = normalizeText(c.Notes)
		c.Urgency = normalizeText(c.Urgency)
		needs := make([]string, len(c.Needs))
		for i, n := range c.Needs {
			needs[i] = normalizeText(n)
		}
		c.Needs = needs
		payload.Client = &c
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling structs of strings cannot fail; keep a defined key anyway.
		data = []byte(task.String() + ":" + input.Query)
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

var foldCaser = cases.Fold()

// normalizeText canonicalizes free text before hashing: Unicode NFKC, case
// folding, and whitespace collapsing. Semantically identical inputs that
// differ only in case or spacing share a fingerprint.
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = foldCaser.String(s)
	return strings.Join(strings.Fields(s), " ")
}
