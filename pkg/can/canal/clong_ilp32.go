//go:build windows || !(amd64 || arm64 || loong64 || mips64 || mips64le || ppc64 || ppc64le || riscv64 || s390x)

package canal

// C long and unsigned long on Windows (LLP64) and 32 bit targets
type (
	cLong  = int32
	cULong = uint32
)
