//go:build !amd64 && !arm64 && !ppc64 && !ppc64le && !s390x && !mips64 && !mips64le && !riscv64 && !loong64

package tinyhttp

const (
	maxIntChars    = 9
	maxHexIntChars = 7
)
