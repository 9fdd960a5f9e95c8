package chunk

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/five82/chunkenc/internal/errors"
)

// LoadScenes reads a newline-delimited list of scene-start frame numbers
// (the format written by both the scene-change detector and the
// fixed-interval chunker) and turns it into a sorted, contiguous scene
// list spanning [0, totalFrames).
func LoadScenes(path string, totalFrames int) ([]Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("opening scene file", err)
	}
	defer func() { _ = file.Close() }()

	var starts []int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, apperrors.NewIOError("parsing scene file line", err)
		}
		starts = append(starts, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewIOError("reading scene file", err)
	}

	sort.Ints(starts)
	if len(starts) == 0 || starts[0] != 0 {
		starts = append([]int{0}, starts...)
	}

	scenes := make([]Scene, 0, len(starts))
	for i, start := range starts {
		end := totalFrames
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if start < end {
			scenes = append(scenes, Scene{Start: start, End: end})
		}
	}
	return scenes, nil
}
