package organize

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GroupKey identifies one destination directory: the (year, month) pair
// derived from a file's last-modified date.
type GroupKey struct {
	Year  int
	Month time.Month
}

// KeyOf maps a timestamp to its group key using the local calendar date.
func KeyOf(t time.Time) GroupKey {
	return GroupKey{Year: t.Year(), Month: t.Month()}
}

// Dir returns the group's destination directory under root: <root>/yyyy/mm.
func (k GroupKey) Dir(root string) string {
	return filepath.Join(root, fmt.Sprintf("%04d", k.Year), fmt.Sprintf("%02d", int(k.Month)))
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%04d/%02d", k.Year, int(k.Month))
}

// FileName renders the on-disk naming pattern [<Brand>_]yyyymmddNNN<.ext>.
// Brand and extension are sanitized; the extension keeps its original case.
func FileName(brand string, date time.Time, seq int, ext string) string {
	name := fmt.Sprintf("%s%03d%s", DateStamp(date), seq, normalizeExt(ext))
	if brand = Sanitize(brand); brand != "" && brand != "unnamed" {
		return brand + "_" + name
	}
	return name
}

// DateStamp renders the zero-padded yyyymmdd form of a local calendar date.
func DateStamp(t time.Time) string {
	return t.Format("20060102")
}

// Sanitize strips control characters and filesystem-reserved characters from
// a name fragment. An empty result becomes "unnamed".
func Sanitize(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 32:
			// drop control characters entirely
		case strings.ContainsRune(`<>:"|?*\/`+"\r\n\t", r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ". ")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

func normalizeExt(ext string) string {
	ext = Sanitize(ext)
	if ext == "" || ext == "unnamed" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// namePattern matches organized filenames: an optional brand prefix ending
// in an underscore, eight date digits, three sequence digits, and an
// optional extension.
var namePattern = regexp.MustCompile(`^(?:.+_)?(\d{8})(\d{3})(?:\..*)?$`)

// parseName extracts the date stamp and sequence number from an organized
// filename, reporting false for names outside the pattern.
func parseName(name string) (stamp string, seq int, ok bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], seq, true
}
