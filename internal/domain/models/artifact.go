package models

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ArtifactFormat identifies the toolchain that produced an artifact
type ArtifactFormat string

const (
	ArtifactFormatFoundry ArtifactFormat = "foundry"
	ArtifactFormatTruffle ArtifactFormat = "truffle"
)

// LinkReference is a byte range in the creation bytecode reserved for a library address
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Artifact represents a compiled contract ready for deployment
type Artifact struct {
	Name       string          `json:"name"`
	SourcePath string          `json:"sourcePath"`
	FilePath   string          `json:"filePath"` // artifact json on disk, relative to the project root
	Format     ArtifactFormat  `json:"format"`
	ABI        json.RawMessage `json:"abi"`
	Bytecode   string          `json:"bytecode"` // hex creation code, may contain placeholders

	// LinkReferences maps source file -> library name -> reserved ranges
	LinkReferences map[string]map[string][]LinkReference `json:"linkReferences,omitempty"`
}

// placeholderPattern matches both hashed (__$...$__) and legacy (__Name___) placeholders
var placeholderPattern = regexp.MustCompile(`__\$[0-9a-fA-F]{34}\$__|__[A-Za-z0-9_.:/]{36}__`)

// IsLinked reports whether the bytecode is free of library placeholders
func (a *Artifact) IsLinked() bool {
	return !placeholderPattern.MatchString(a.Bytecode)
}

// Placeholders returns the distinct placeholders still present in the bytecode
func (a *Artifact) Placeholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range placeholderPattern.FindAllString(a.Bytecode, -1) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Libraries returns the names of libraries the artifact expects to be linked
func (a *Artifact) Libraries() []string {
	seen := make(map[string]bool)
	for _, libs := range a.LinkReferences {
		for name := range libs {
			seen[name] = true
		}
	}
	// Truffle artifacts carry no link references, fall back to legacy placeholders
	for _, p := range a.legacyPlaceholders() {
		if name, _ := legacyLibraryName(p); name != "" {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

// MissingLibraries returns the libraries the bytecode needs that provided does not cover
func (a *Artifact) MissingLibraries(provided []string) []string {
	have := make(map[string]bool, len(provided))
	for _, name := range provided {
		have[name] = true
	}

	missing := make(map[string]bool)
	for _, libs := range a.LinkReferences {
		for name := range libs {
			if !have[name] {
				missing[name] = true
			}
		}
	}
	for _, p := range a.legacyPlaceholders() {
		matched := false
		for _, name := range provided {
			if LegacyPlaceholderMatches(p, name) {
				matched = true
				break
			}
		}
		if name, _ := legacyLibraryName(p); !matched && name != "" {
			missing[name] = true
		}
	}
	return sortedKeys(missing)
}

// legacyNameLength is the room for a library name inside a legacy placeholder
const legacyNameLength = 36

// LegacyPlaceholderMatches reports whether a pre-0.5 "__Name___" placeholder
// stands for library. Names longer than the placeholder were cut by the
// compiler, so a placeholder filled to the brim matches on prefix.
func LegacyPlaceholderMatches(placeholder, library string) bool {
	name, truncated := legacyLibraryName(placeholder)
	if name == "" || library == "" {
		return false
	}
	if truncated {
		return strings.HasPrefix(library, name)
	}
	return name == library
}

// legacyLibraryName strips padding and any "path:" prefix from a legacy
// placeholder and reports whether the compiler cut the name short
func legacyLibraryName(placeholder string) (string, bool) {
	if len(placeholder) != legacyNameLength+4 || strings.HasPrefix(placeholder, "__$") {
		return "", false
	}
	body := placeholder[2 : len(placeholder)-2]
	truncated := !strings.HasSuffix(body, "_")
	name := strings.TrimRight(body, "_")
	if idx := strings.LastIndex(name, ":"); idx != -1 {
		name = name[idx+1:]
	}
	return name, truncated
}

func (a *Artifact) legacyPlaceholders() []string {
	return lo.Filter(a.Placeholders(), func(p string, _ int) bool {
		return !strings.HasPrefix(p, "__$")
	})
}

func sortedKeys(set map[string]bool) []string {
	names := lo.Keys(set)
	sort.Strings(names)
	return names
}

// FullyQualifiedName returns "path:Name", or just the name when the path is unknown
func (a *Artifact) FullyQualifiedName() string {
	if a.SourcePath == "" {
		return a.Name
	}
	return a.SourcePath + ":" + a.Name
}
