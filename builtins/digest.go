// digest.go supplies the hashing primitives a STklos-family image
// expects alongside arithmetic and lists: a string digest (SHA-256,
// SHA-512 or RIPEMD-160, chosen by a symbol), and password hash/verify
// built on the same Unix-crypt family the teacher's crypto.go and
// compat_extensions.go wire up. Grounded on those two files; libraries:
// golang.org/x/crypto/ripemd160 (string-hash), golang.org/x/crypto/argon2
// (crypt-hash's default scheme, following compat_extensions.go's
// argon2.IDKey use), github.com/amoghe/go-crypt (crypt-hash's legacy
// $1$/$5$/$6$ schemes, following crypto.go's builtinCrypt salt-prefix
// dispatch) and github.com/sergeymakinen/go-crypt (crypt-verify, whose
// NewFromHash/Verify pair checks a password against any scheme's hash
// without the caller needing to re-implement the dispatch crypto.go
// does by hand).
package builtins

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	gocrypt "github.com/amoghe/go-crypt"
	skcrypt "github.com/sergeymakinen/go-crypt"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/ripemd160"

	"schemevm/types"
)

func DigestPrimitives() []*types.Primitive {
	return []*types.Primitive{
		{
			// string-hash(str, algorithm-symbol) -> hex string, where
			// algorithm-symbol is one of sha256, sha512, ripemd160.
			Name: "string-hash", MinArgs: 2, MaxArgs: 2,
			Fn: func(args []types.Value) (types.Value, error) {
				s, ok := args[0].(*types.Str)
				if !ok {
					return nil, wrongType("string-hash", args[0])
				}
				alg, ok := args[1].(types.Symbol)
				if !ok {
					return nil, wrongType("string-hash", args[1])
				}
				var h hash.Hash
				switch alg.Name() {
				case "sha256":
					h = sha256.New()
				case "sha512":
					h = sha512.New()
				case "ripemd160":
					h = ripemd160.New()
				default:
					return nil, wrongType("string-hash", alg)
				}
				h.Write([]byte(string(s.Runes)))
				return types.NewString(hex.EncodeToString(h.Sum(nil))), nil
			},
		},
		{
			// crypt-hash(password [, salt]) -> hash-string
			// With no salt, hashes with argon2id under a fresh random
			// salt (compat_extensions.go's default scheme). With a
			// "$1$"/"$5$"/"$6$"-prefixed salt, defers to go-crypt's
			// traditional-Unix-crypt implementation instead, matching
			// crypto.go's salt-prefix dispatch.
			Name: "crypt-hash", MinArgs: 1, MaxArgs: 2,
			Fn: func(args []types.Value) (types.Value, error) {
				password, ok := args[0].(*types.Str)
				if !ok {
					return nil, wrongType("crypt-hash", args[0])
				}
				if len(args) == 2 {
					salt, ok := args[1].(*types.Str)
					if !ok {
						return nil, wrongType("crypt-hash", args[1])
					}
					out, err := gocrypt.Crypt(string(password.Runes), string(salt.Runes))
					if err != nil {
						return nil, wrongType("crypt-hash", types.NewString(err.Error()))
					}
					return types.NewString(out), nil
				}
				return types.NewString(argon2Hash(string(password.Runes))), nil
			},
		},
		{
			// crypt-verify(password, hash) -> bool
			Name: "crypt-verify", MinArgs: 2, MaxArgs: 2,
			Fn: func(args []types.Value) (types.Value, error) {
				password, ok := args[0].(*types.Str)
				if !ok {
					return nil, wrongType("crypt-verify", args[0])
				}
				hash, ok := args[1].(*types.Str)
				if !ok {
					return nil, wrongType("crypt-verify", args[1])
				}
				if strings.HasPrefix(string(hash.Runes), "$argon2id") {
					return types.FromBool(argon2Verify(string(password.Runes), string(hash.Runes))), nil
				}
				c, err := skcrypt.NewFromHash(string(hash.Runes))
				if err != nil {
					return types.False, nil
				}
				return types.FromBool(c.Verify(string(password.Runes)) == nil), nil
			},
		},
	}
}

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// argon2Hash follows compat_extensions.go's encoded-string layout:
// $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<key>, both halves
// base64-raw-encoded.
func argon2Hash(password string) string {
	salt := make([]byte, argon2SaltLen)
	rand.Read(salt)
	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func argon2Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, uint32(t), uint32(m), uint8(p), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
