package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// VideoFixture describes a job folder written by WriteVideoFixture.
type VideoFixture struct {
	// Sentences are emitted as transcript entries with one second per word.
	Sentences []string
	// Images is the number of images written; zero means one per sentence.
	Images int
}

// WriteVideoFixture creates a complete job folder under reelsDir/videoID
// with a transcript, narration stub, and numbered images.
func WriteVideoFixture(t testing.TB, reelsDir, videoID string, fx VideoFixture) string {
	t.Helper()

	dir := filepath.Join(reelsDir, videoID)
	var (
		sentences []string
		words     []string
		clock     float64
	)
	for _, sentence := range fx.Sentences {
		start := clock
		for _, word := range strings.Fields(sentence) {
			words = append(words, fmt.Sprintf(`{"start":%g,"end":%g,"word":%s}`, clock, clock+1, strconv.Quote(word)))
			clock++
		}
		sentences = append(sentences, fmt.Sprintf(`{"start":%g,"end":%g,"text":%s}`, start, clock, strconv.Quote(sentence)))
	}
	doc := `{"sentences":[` + strings.Join(sentences, ",") + `],"words":[` + strings.Join(words, ",") + `]}`

	writeBytes(t, filepath.Join(dir, "subtitles", "subtitles.json"), []byte(doc))
	WriteFile(t, filepath.Join(dir, "full_audio.mp3"), 64)

	count := fx.Images
	if count == 0 {
		count = len(fx.Sentences)
	}
	for i := 1; i <= count; i++ {
		WriteFile(t, filepath.Join(dir, "images", fmt.Sprintf("image_%d.png", i)), 16)
	}
	return dir
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
