package router

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxEntityPayload = 16 * 1024
	maxErrSnippet    = 200
)

// StorageEntities are the storage objects named in a question.
type StorageEntities struct {
	StorageAccount string `json:"storageAccount"`
	BlobContainer  string `json:"blobContainer"`
	Queue          string `json:"queue"`
	Table          string `json:"table"`
	FileShare      string `json:"fileShare"`
}

// ParseStorageEntities extracts the first JSON object from a model answer.
// Code fences and surrounding prose are tolerated.
func ParseStorageEntities(content string) (ents StorageEntities, err error) {
	defer func() {
		if r := recover(); r != nil {
			ents, err = StorageEntities{}, fmt.Errorf("entity parser panic: %v", r)
		}
	}()

	s := strings.TrimSpace(content)
	if len(s) > maxEntityPayload {
		return StorageEntities{}, fmt.Errorf("entity payload too large (%d bytes)", len(s))
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return StorageEntities{}, fmt.Errorf("no json object in %q", safeSnippet(s))
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &ents); err != nil {
		return StorageEntities{}, fmt.Errorf("decode entities %q: %w", safeSnippet(s), err)
	}

	for _, f := range []*string{&ents.StorageAccount, &ents.BlobContainer, &ents.Queue, &ents.Table, &ents.FileShare} {
		*f = cleanEntity(*f)
	}
	return ents, nil
}

func cleanEntity(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "null", "none", "n/a", "unknown":
		return ""
	}
	return v
}

func safeSnippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	cut := maxErrSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
