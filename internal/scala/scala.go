// Package scala reads Scala (.scl) scale definitions.
package scala

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Extension is the file extension of Scala scale files.
const Extension = ".scl"

var ErrMalformed = errors.New("malformed scala file")

// Scale is the parsed content of a .scl file. Cents keeps the order of the file.
type Scale struct {
	Description string
	Cents       []float64
}

// Parse reads a scale. Lines starting with '!' are comments, the first other
// line is the description, the second the note count, followed by one pitch
// per line written either in cents (contains a '.') or as a ratio.
func Parse(r io.Reader) (*Scale, error) {
	sc := bufio.NewScanner(r)
	var (
		s       Scale
		lineNo  int
		count   = -1
		haveDes bool
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "!") {
			continue
		}
		if !haveDes {
			s.Description = strings.TrimSpace(line)
			haveDes = true
			continue
		}
		field := firstField(line)
		if count < 0 {
			n, err := strconv.Atoi(field)
			if err != nil || n < 0 {
				return nil, malformed(lineNo, fmt.Sprintf("invalid note count %q", field))
			}
			count = n
			s.Cents = make([]float64, 0, n)
			continue
		}
		if len(s.Cents) == count {
			break
		}
		if field == "" {
			return nil, malformed(lineNo, "missing pitch")
		}
		c, err := parsePitch(field)
		if err != nil {
			return nil, malformed(lineNo, err.Error())
		}
		s.Cents = append(s.Cents, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("read scala file"))
	}
	if count < 0 {
		return nil, malformed(lineNo, "missing note count")
	}
	if len(s.Cents) != count {
		return nil, malformed(lineNo, fmt.Sprintf("expected %d pitches, found %d", count, len(s.Cents)))
	}
	return &s, nil
}

// ParseFile opens and parses a .scl file.
func ParseFile(path string) (*Scale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open scala file", fmt.Sprintf("Could not open %s", path)))
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(filepath.Base(path)))
	}
	return s, nil
}

// File is a scale source backed by a .scl file on disk.
type File string

// Name is the file's base name without the .scl extension.
func (f File) Name() string {
	return strings.TrimSuffix(filepath.Base(string(f)), Extension)
}

func (f File) Load() ([]float64, error) {
	s, err := ParseFile(string(f))
	if err != nil {
		return nil, err
	}
	return s.Cents, nil
}

func firstField(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parsePitch(field string) (float64, error) {
	if strings.Contains(field, ".") {
		c, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsInf(c, 0) {
			return 0, fmt.Errorf("invalid cents value %q", field)
		}
		return c, nil
	}

	num, den := field, "1"
	if i := strings.IndexByte(field, '/'); i >= 0 {
		num, den = field[:i], field[i+1:]
	}
	n, errN := strconv.ParseUint(num, 10, 64)
	d, errD := strconv.ParseUint(den, 10, 64)
	if errN != nil || errD != nil || n == 0 || d == 0 {
		return 0, fmt.Errorf("invalid ratio %q", field)
	}
	return 1200 * math.Log2(float64(n)/float64(d)), nil
}

func malformed(line int, msg string) error {
	return fault.Wrap(ErrMalformed,
		fmsg.WithDesc(fmt.Sprintf("line %d: %s", line, msg), "The file is not a valid Scala scale"),
		ftag.With(ftag.InvalidArgument),
	)
}
