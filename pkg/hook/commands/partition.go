package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrArgumentTooLong is returned when a single filename cannot fit on a command line
var ErrArgumentTooLong = errors.New("argument too long for command line")

// PlatformMaxLength returns the byte budget for one command line, leaving room
// for the environment the child inherits
func PlatformMaxLength() int {
	if runtime.GOOS == "windows" {
		return 8192 - 1024
	}

	envSize := 0
	for _, kv := range os.Environ() {
		envSize += len(kv) + 1
	}
	return max((1<<17)-2048-envSize, 4096)
}

// PartitionFiles splits files into batches to append to base. With jobs > 1
// files are spread over up to jobs batches of roughly equal count; any batch
// whose command line would exceed maxLength bytes is split further.
func PartitionFiles(base, files []string, jobs, maxLength int) ([][]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	chunkSize := len(files)
	if jobs > 1 {
		chunkSize = (len(files) + jobs - 1) / jobs
	}

	baseLength := 0
	for _, arg := range base {
		baseLength += len(arg) + 1
	}

	var batches [][]string
	var current []string
	length := baseLength

	for _, file := range files {
		argLength := len(file) + 1
		if baseLength+argLength > maxLength {
			return nil, fmt.Errorf("%w: %s", ErrArgumentTooLong, file)
		}

		if len(current) == chunkSize || length+argLength > maxLength {
			batches = append(batches, current)
			current = nil
			length = baseLength
		}

		current = append(current, file)
		length += argLength
	}

	return append(batches, current), nil
}
