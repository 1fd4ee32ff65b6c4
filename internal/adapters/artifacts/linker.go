package artifacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// placeholderLength is the width of a library placeholder in hex characters
const placeholderLength = 40

// Linker writes library addresses into creation bytecode
type Linker struct{}

// NewLinker creates a new bytecode linker
func NewLinker() *Linker {
	return &Linker{}
}

// Link returns linked bytecode. The artifact itself is left untouched.
func (l *Linker) Link(artifact *models.Artifact, libraries map[string]common.Address) (string, error) {
	code := strings.TrimPrefix(artifact.Bytecode, "0x")

	// Foundry link references give exact byte offsets
	for file, libs := range artifact.LinkReferences {
		for name, refs := range libs {
			addr, ok := libraries[name]
			if !ok {
				continue
			}
			for _, ref := range refs {
				start := ref.Start * 2
				end := start + ref.Length*2
				if ref.Length != common.AddressLength || end > len(code) {
					return "", fmt.Errorf("invalid link reference for %s:%s at %d", file, name, ref.Start)
				}
				code = code[:start] + addressHex(addr) + code[end:]
			}
		}
	}

	// Hashed placeholders, when bytecode came without link references
	for file, libs := range artifact.LinkReferences {
		for name := range libs {
			if addr, ok := libraries[name]; ok {
				code = strings.ReplaceAll(code, HashedPlaceholder(file+":"+name), addressHex(addr))
			}
		}
	}

	// Legacy "__Name_____" placeholders used by Truffle artifacts
	names := lo.Keys(libraries)
	sort.Strings(names)
	for _, placeholder := range legacyPlaceholders(code) {
		for _, name := range names {
			if models.LegacyPlaceholderMatches(placeholder, name) {
				code = strings.ReplaceAll(code, placeholder, addressHex(libraries[name]))
				break
			}
		}
	}

	linked := &models.Artifact{Bytecode: code}
	if remaining := linked.Placeholders(); len(remaining) > 0 {
		sort.Strings(remaining)
		return "", fmt.Errorf("%w in %s: %s", domain.ErrUnlinkedBytecode, artifact.Name, strings.Join(remaining, ", "))
	}

	return "0x" + code, nil
}

// HashedPlaceholder returns the solc >= 0.5 placeholder for a fully qualified library name
func HashedPlaceholder(fqn string) string {
	hash := common.Bytes2Hex(crypto.Keccak256([]byte(fqn)))
	return "__$" + hash[:34] + "$__"
}

// LegacyPlaceholder returns the pre-0.5 placeholder for a library name
func LegacyPlaceholder(name string) string {
	if len(name) > placeholderLength-4 {
		name = name[:placeholderLength-4]
	}
	return "__" + name + strings.Repeat("_", placeholderLength-2-len(name))
}

func legacyPlaceholders(code string) []string {
	var out []string
	for _, p := range (&models.Artifact{Bytecode: code}).Placeholders() {
		if !strings.HasPrefix(p, "__$") {
			out = append(out, p)
		}
	}
	return out
}

func addressHex(addr common.Address) string {
	return strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x"))
}

var _ usecase.BytecodeLinker = (*Linker)(nil)
