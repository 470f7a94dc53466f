package catcommon

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	nameIDLen    = 10
)

// GenerateName returns prefix followed by a random lower case suffix, for
// example "fk_3k9x0c1mza". Used for constraints created without a name.
// The suffix is random, callers still check the name is free.
func GenerateName(prefix string) string {
	id, err := gonanoid.Generate(nameAlphabet, nameIDLen)
	if err != nil {
		// only fails on a bad alphabet or length
		panic(err)
	}
	if prefix == "" {
		return id
	}
	return strings.TrimSuffix(prefix, "_") + "_" + id
}
