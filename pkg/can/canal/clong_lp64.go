//go:build !windows && (amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x)

package canal

// C long and unsigned long on LP64 targets
type (
	cLong  = int64
	cULong = uint64
)
